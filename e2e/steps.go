package e2e

import (
	"github.com/cucumber/godog"

	"samved/e2e/steps/common"
	"samved/e2e/steps/promotion"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register registration and approval steps
	promotion.RegisterSteps(ctx, tc)
}
