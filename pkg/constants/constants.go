package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	PoolKey   ContextKey = "pool"
	TxKey     ContextKey = "tx"
	TenantKey ContextKey = "tenant"
	ActorKey  ContextKey = "actor"
	LoggerKey ContextKey = "logger"
	ParamsKey ContextKey = "params"
)

// Validate is the shared validator instance used by domain DTOs.
var Validate = validator.New()
