package tests

import (
	"github.com/yieldshift/sidecar/internal/config"
	"github.com/yieldshift/sidecar/internal/logger"
	"go.uber.org/zap"
)

const RpcUrl = "http://yieldshift.test/rpc"

func GetConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.EthereumRpcConfig.BaseUrl = RpcUrl
	return cfg
}

func GetLogger() *zap.Logger {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	return l
}
