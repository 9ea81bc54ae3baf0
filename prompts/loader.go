// Package prompts holds the default system prompts for the reasoning
// collaborator and resolves per-workspace overrides.
package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PromptKey identifies one collaborator prompt.
type PromptKey string

const (
	// KeyBreakdown is the key for the goal decomposition prompt.
	KeyBreakdown PromptKey = "Breakdown"
	// KeyRegenerate is the key for the goal reframing prompt.
	KeyRegenerate PromptKey = "Regenerate"
	// KeyActivationPlan is the key for the activation scheduling prompt.
	KeyActivationPlan PromptKey = "ActivationPlan"
	// KeyNextStep is the key for the roadmap next-step prompt.
	KeyNextStep PromptKey = "NextStep"
	// KeyLockRationale is the key for the lock annotation prompt.
	KeyLockRationale PromptKey = "LockRationale"
)

// promptSpec pairs a built-in prompt with its override filename.
type promptSpec struct {
	builtin  string
	override string
}

var specs = map[PromptKey]promptSpec{
	KeyBreakdown:      {BreakdownSystemPrompt, "breakdown_prompt.txt"},
	KeyRegenerate:     {RegenerateSystemPrompt, "regenerate_prompt.txt"},
	KeyActivationPlan: {ActivationPlanSystemPrompt, "activation_plan_prompt.txt"},
	KeyNextStep:       {NextStepSystemPrompt, "next_step_prompt.txt"},
	KeyLockRationale:  {LockRationaleSystemPrompt, "lock_rationale_prompt.txt"},
}

// GetPrompt returns the system prompt for key. A file named after the prompt
// in templatesDir replaces the built-in default, so a workspace can tune the
// collaborator without rebuilding.
func GetPrompt(key PromptKey, templatesDir string) (string, error) {
	spec, ok := specs[key]
	if !ok {
		return "", fmt.Errorf("unrecognized prompt key: %s", key)
	}
	if strings.TrimSpace(templatesDir) == "" {
		return spec.builtin, nil
	}

	override := filepath.Join(templatesDir, spec.override)
	content, err := os.ReadFile(override)
	switch {
	case err == nil:
		slog.Debug("using workspace prompt override", "key", key, "path", override)
		return string(content), nil
	case os.IsNotExist(err):
		return spec.builtin, nil
	default:
		return "", fmt.Errorf("read prompt override %s: %w", override, err)
	}
}
