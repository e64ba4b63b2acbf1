package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title GitGauge API
// @version 0.1
// @description Interactive documentation for the GitGauge scan API surface.
// @contact.name GitGauge Maintainers
// @contact.url https://github.com/gitgauge/gitgauge
// @BasePath /
