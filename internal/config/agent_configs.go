package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"leadchat-server/services/routing-api/internal/infrastructure/logger"
)

const DefaultAgentConfigFile = "config/agents.yml"

// AgentBootstrapEntry describes an external agent that should be registered on startup.
type AgentBootstrapEntry struct {
	Name          string
	Slug          string
	WebhookURL    string
	GatewayToken  string
	GatewayNumber string
	Active        bool
	Metadata      map[string]string
}

// AgentBootstrapConfig maintains the configured agent definitions.
type AgentBootstrapConfig struct {
	agents []AgentBootstrapEntry
}

// Agents returns a copy of the configured agent entries.
func (c *AgentBootstrapConfig) Agents() []AgentBootstrapEntry {
	if c == nil || len(c.agents) == 0 {
		return nil
	}
	result := make([]AgentBootstrapEntry, len(c.agents))
	copy(result, c.agents)
	return result
}

// LoadAgentBootstrapConfig parses the yaml file at the provided path.
func LoadAgentBootstrapConfig(path string) (*AgentBootstrapConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("agent config path is empty")
	}

	log := logger.GetLogger()
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read agent config %q: %w", cleanPath, err)
	}
	log.Info().Str("path", cleanPath).Msg("loading agent config file")

	var doc agentConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse agent config %q: %w", cleanPath, err)
	}

	if len(doc.Agents) == 0 {
		return nil, fmt.Errorf("agent config %q has no agents defined", cleanPath)
	}

	result := &AgentBootstrapConfig{}
	for idx, entry := range doc.Agents {
		entryLogger := log.With().Int("index", idx).Str("name", entry.Name).Logger()
		enabled, err := parseEnabled(entry.EnableRaw)
		if err != nil {
			return nil, fmt.Errorf("agents[%d]: %w", idx, err)
		}
		if !enabled {
			entryLogger.Info().Msg("skipping agent (enable=false)")
			continue
		}
		normalized, err := normalizeAgentEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("agents[%d]: %w", idx, err)
		}
		entryLogger.Info().
			Str("slug", normalized.Slug).
			Str("webhook_url", normalized.WebhookURL).
			Bool("has_gateway_token", normalized.GatewayToken != "").
			Msg("including agent for bootstrap")
		result.agents = append(result.agents, normalized)
	}

	if len(result.agents) == 0 {
		return nil, fmt.Errorf("agent config %q has no valid agent entries", cleanPath)
	}

	return result, nil
}

type agentConfigDocument struct {
	Agents []agentConfigEntry `yaml:"agents"`
}

type agentConfigEntry struct {
	EnableRaw     string            `yaml:"enable"`
	Name          string            `yaml:"name"`
	Slug          string            `yaml:"slug"`
	WebhookURL    string            `yaml:"webhook_url"`
	URL           string            `yaml:"url"`
	GatewayToken  string            `yaml:"gateway_token"`
	Token         string            `yaml:"token"`
	GatewayNumber string            `yaml:"gateway_number"`
	Active        *bool             `yaml:"active"`
	Description   string            `yaml:"description"`
	Metadata      map[string]string `yaml:"metadata"`
}

func normalizeAgentEntry(entry agentConfigEntry) (AgentBootstrapEntry, error) {
	name := strings.TrimSpace(os.ExpandEnv(entry.Name))
	if name == "" {
		return AgentBootstrapEntry{}, errors.New("agent name is required")
	}

	slug := strings.TrimSpace(entry.Slug)
	if slug == "" {
		slug = strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	}

	webhookURL := firstNonEmpty(entry.WebhookURL, entry.URL)
	webhookURL = strings.TrimSpace(os.ExpandEnv(webhookURL))

	token := strings.TrimSpace(firstNonEmpty(entry.GatewayToken, entry.Token))
	if token != "" {
		token = os.ExpandEnv(token)
	}

	active := true
	if entry.Active != nil {
		active = *entry.Active
	}

	metadata := cloneStringMap(entry.Metadata)
	if desc := strings.TrimSpace(os.ExpandEnv(entry.Description)); desc != "" {
		if metadata == nil {
			metadata = make(map[string]string)
		}
		metadata["description"] = desc
	}

	return AgentBootstrapEntry{
		Name:          name,
		Slug:          slug,
		WebhookURL:    webhookURL,
		GatewayToken:  token,
		GatewayNumber: strings.TrimSpace(os.ExpandEnv(entry.GatewayNumber)),
		Active:        active,
		Metadata:      metadata,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(os.ExpandEnv(v))
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseEnabled(raw string) (bool, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return true, nil
	}

	resolved := expandWithDefault(value)
	resolved = strings.TrimSpace(resolved)
	if resolved == "" {
		return true, nil
	}

	parsed, err := strconv.ParseBool(resolved)
	if err != nil {
		return false, fmt.Errorf("enable: %w", err)
	}
	return parsed, nil
}

// expandWithDefault expands ${VAR} and ${VAR:-default} syntax using os envs.
func expandWithDefault(raw string) string {
	if !strings.Contains(raw, "${") {
		return os.ExpandEnv(raw)
	}
	start := strings.Index(raw, "${")
	end := strings.Index(raw[start:], "}")
	if start == -1 || end == -1 {
		return os.ExpandEnv(raw)
	}
	end = start + end
	expr := raw[start+2 : end]
	defaultVal := ""
	varName := expr
	if strings.Contains(expr, ":-") {
		parts := strings.SplitN(expr, ":-", 2)
		varName = parts[0]
		defaultVal = parts[1]
	}
	val := os.Getenv(varName)
	if val == "" {
		val = defaultVal
	}
	resolved := raw[:start] + val + raw[end+1:]
	return os.ExpandEnv(resolved)
}
