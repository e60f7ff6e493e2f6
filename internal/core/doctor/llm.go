package doctor

import (
	"context"
	"fmt"

	"github.com/colonyops/scribe/internal/core/config"
)

// LLMCheck reports whether script generation can authenticate.
type LLMCheck struct {
	cfg config.LLMConfig
}

// NewLLMCheck creates an LLM check.
func NewLLMCheck(cfg config.LLMConfig) *LLMCheck {
	return &LLMCheck{cfg: cfg}
}

func (c *LLMCheck) Name() string {
	return "Script Generation"
}

func (c *LLMCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	switch {
	case c.cfg.APIKey != "":
		result.Items = append(result.Items, CheckItem{
			Label:  "api key",
			Status: StatusPass,
			Detail: "set in config",
		})
	case c.cfg.ResolveAPIKey() != "":
		result.Items = append(result.Items, CheckItem{
			Label:  "api key",
			Status: StatusPass,
			Detail: "read from $" + c.cfg.APIKeyEnv,
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "api key",
			Status: StatusFail,
			Detail: fmt.Sprintf("set llm.api_key or $%s", c.cfg.APIKeyEnv),
		})
	}

	detail := c.cfg.Model
	if c.cfg.BaseURL != "" {
		detail += " via " + c.cfg.BaseURL
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "model",
		Status: StatusPass,
		Detail: detail,
	})

	prompt := "built-in"
	if c.cfg.PromptTemplate != "" {
		prompt = "custom"
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "prompt",
		Status: StatusPass,
		Detail: prompt,
	})

	return result
}
