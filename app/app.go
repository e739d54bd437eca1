package app

import (
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mbolis/rpe-survey/config"
	"github.com/mbolis/rpe-survey/model"
)

type App struct {
	*sql.DB
	config.Config
	Schema    model.Schema
	Validator *validator.Validate
	Now       func() time.Time
}
