package providers

import (
	"github.com/samber/do/v2"

	"github.com/doableapp/doable-server/internal/ai"
	"github.com/doableapp/doable-server/internal/auth"
	"github.com/doableapp/doable-server/internal/config"
	"github.com/doableapp/doable-server/internal/logger"
	"github.com/doableapp/doable-server/internal/service"
	"github.com/doableapp/doable-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(store.Store, tokens, validator, log.Logger), nil
}

// ProvideTodoService provides the todo service.
func ProvideTodoService(i do.Injector) (*service.TodoService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTodoService(store.Store, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(store.Store, log.Logger), nil
}

// ProvideSubtaskService provides the subtask service.
func ProvideSubtaskService(i do.Injector) (*service.SubtaskService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSubtaskService(store.Store, log.Logger), nil
}

// ProvideAICollaborator provides the Anthropic collaborator. Returns nil
// when no API key is configured, which disables the AI endpoints.
func ProvideAICollaborator(i do.Injector) (ai.Collaborator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.AI.APIKey == "" {
		log.Info("AI endpoints disabled, no API key configured")
		return nil, nil
	}

	collaborator, err := ai.NewAnthropicCollaborator(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("AI collaborator ready", "model", cfg.AI.Model)

	return collaborator, nil
}

// ProvideAIService provides the AI assistance service.
func ProvideAIService(i do.Injector) (*service.AIService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	collaborator := do.MustInvoke[ai.Collaborator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAIService(store.Store, collaborator, log.Logger), nil
}
