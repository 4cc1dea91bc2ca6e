//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	"github.com/kltng/lcsh-validation-api/internal/config"
	"github.com/kltng/lcsh-validation-api/internal/infrastructure/loc"
	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/router"
)

// InfraSet 外部依赖提供者集合
var InfraSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideLOCClient,
	wire.Bind(new(recommend.Retriever), new(*loc.Client)),
	ProvideCandidateCache,
)

// RecommendSet 推荐编排提供者集合
var RecommendSet = wire.NewSet(
	ProvideVectorizer,
	ProvideRecommendOptions,
	recommend.NewEngine,
)

// RouterSet 路由提供者集合
var RouterSet = wire.NewSet(
	ProvideKeySet,
	ProvideLimiter,
	ProvideRecommendHandler,
	ProvideHealthHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	wire.Struct(new(router.Guard), "*"),
	router.NewWithDeps,
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		InfraSet,
		RecommendSet,
		RouterSet,
	)
	return nil, nil, nil
}
