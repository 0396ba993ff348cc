package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/validation"
)

// SettingsAPI is what the settings form needs from the backend client.
type SettingsAPI interface {
	GetAlertSettings(ctx context.Context) (*entity.AlertSettings, error)
	UpdateAlertSettings(ctx context.Context, settings entity.AlertSettings) error
}

type SettingsUsecase struct {
	api      SettingsAPI
	validate *validation.Validator
	log      *zap.Logger
}

func NewSettingsUsecase(api SettingsAPI, validate *validation.Validator, log *zap.Logger) *SettingsUsecase {
	return &SettingsUsecase{
		api:      api,
		validate: validate,
		log:      log.Named("settings"),
	}
}

// Load reads the current alert channels for prefill. Callers treat a
// failure as non-fatal; the form stays usable without prefill.
func (u *SettingsUsecase) Load(ctx context.Context) (*entity.AlertSettings, error) {
	return u.api.GetAlertSettings(ctx)
}

// Save validates per field and patches the backend. At least one channel
// must be set. Validation failures never reach the network.
func (u *SettingsUsecase) Save(ctx context.Context, settings entity.AlertSettings) error {
	if settings.Empty() {
		return validation.FieldErrors{
			"_root": "provide an email or a Slack webhook URL",
		}
	}
	if errs := u.validate.Struct(settings); errs != nil {
		return errs
	}

	if err := u.api.UpdateAlertSettings(ctx, settings); err != nil {
		return err
	}
	u.log.Info("alert settings saved",
		zap.Bool("email", settings.Email != ""),
		zap.Bool("slack", settings.SlackWebhook != ""))
	return nil
}
