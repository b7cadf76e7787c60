// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/gviegas/xrcube/config"
)

func initGame(cfg *config.Config) (*game, func(), error) {
	wire.Build(providerSet)
	return nil, nil, nil
}
