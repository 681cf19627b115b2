// Package validation validates configuration structs.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their mapstructure key, so messages match the YAML and env names:
//
//	type Config struct {
//	    AsyncTimeout time.Duration `mapstructure:"async_timeout" validate:"gt=0"`
//	}
//	err := validation.Struct(cfg)
//
// Cross-field rules use the collecting Validator:
//
//	v := validation.New()
//	v.Check(cfg.Endpoint != "" || !cfg.Enabled, "endpoint", "is required when enabled")
//	err := v.Validate()
//
// Both return an INVALID_CONFIG *errors.AppError.
package validation
