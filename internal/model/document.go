package model

// EstimateDocument bundles everything report rendering needs for one
// estimate.
type EstimateDocument struct {
	Estimate CostEstimate
	Project  Project
	Version  TakeoffVersion
	Lines    []EstimateLine
}
