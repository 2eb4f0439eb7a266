// Package testing provides test doubles and defaults shared by the genesis
// packages.
package testing

const (
	testModelName = "ollama:qwen3:0.6b"
)

func GetTestModelName() string {
	// the integration model is small so it runs on CI hardware
	return testModelName
}
