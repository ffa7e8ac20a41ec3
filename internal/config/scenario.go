package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ragcore/ragcore/internal/core"
)

// ScenarioFile is the on-disk shape of a scenario's prompts/keyword
// library, per SPEC_FULL.md §3's ScenarioConfig. One file per
// scenario_id, hot-reloadable via fsnotify (see Watcher).
type ScenarioFile struct {
	ScenarioID             string              `yaml:"scenario_id"`
	KeywordLibrary         map[string][]string `yaml:"keyword_library"`
	QuestionAnalysisPrompt string              `yaml:"question_analysis_prompt"`
	DocumentRoutingPrompt  string              `yaml:"document_routing_prompt"`
	AnswerGenerationPrompt string              `yaml:"answer_generation_prompt"`
	SystemContent          string              `yaml:"system_content"`
	CitationPatterns       []string            `yaml:"citation_patterns"`
}

// ToScenarioConfig converts the on-disk shape into the runtime type C5/C7
// consume.
func (f ScenarioFile) ToScenarioConfig() core.ScenarioConfig {
	return core.ScenarioConfig{
		ScenarioID:             f.ScenarioID,
		KeywordLibrary:         f.KeywordLibrary,
		QuestionAnalysisPrompt: f.QuestionAnalysisPrompt,
		DocumentRoutingPrompt:  f.DocumentRoutingPrompt,
		AnswerGenerationPrompt: f.AnswerGenerationPrompt,
		SystemContent:          f.SystemContent,
		CitationPatterns:       f.CitationPatterns,
	}
}

// LoadScenario reads a scenario config YAML file from path. A missing file
// yields a bare ScenarioConfig carrying only scenarioID, so a namespace can
// still be prepared and questioned with default prompts before an operator
// has written a scenario file.
func LoadScenario(path, scenarioID string) (core.ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.ScenarioConfig{ScenarioID: scenarioID}, nil
		}
		return core.ScenarioConfig{}, fmt.Errorf("read scenario config %s: %w", path, err)
	}

	var f ScenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return core.ScenarioConfig{}, fmt.Errorf("parse scenario config %s: %w", path, err)
	}
	if f.ScenarioID == "" {
		f.ScenarioID = scenarioID
	}
	return f.ToScenarioConfig(), nil
}
