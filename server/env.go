package server

import "github.com/gaborage/dbworkbench/config"

func isDevelopmentEnv(env string) bool {
	return env == config.EnvDevelopment
}
