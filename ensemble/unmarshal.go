package ensemble

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a tagged trigger variant, hoisting type/auth/public
// and keeping everything else in Extra (spec §3).
func (t *Trigger) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]interface{}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}

	typ, _ := raw["type"].(string)
	t.Type = TriggerType(typ)
	delete(raw, "type")

	if authRaw, ok := raw["auth"]; ok {
		if authMap, ok := authRaw.(map[string]interface{}); ok {
			t.Auth = authMap
		} else {
			t.Auth = map[string]interface{}{"value": authRaw}
		}
		delete(raw, "auth")
	}

	if pub, ok := raw["public"].(bool); ok {
		t.Public = pub
		delete(raw, "public")
	}

	t.Extra = raw
	return nil
}

// UnmarshalYAML decodes a tagged notification variant (spec §3).
func (n *Notification) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]interface{}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("notification: %w", err)
	}

	typ, _ := raw["type"].(string)
	n.Type = NotificationType(typ)

	n.Events = decodeEvents(raw["events"])

	switch n.Type {
	case NotificationWebhook:
		n.URL, _ = raw["url"].(string)
		n.Secret, _ = raw["secret"].(string)
		n.Retries = intOr(raw["retries"], 3)
		n.Timeout = durationMSOr(raw["timeout"], 5*time.Second)
	case NotificationEmail:
		n.To = stringSlice(raw["to"])
		n.Subject, _ = raw["subject"].(string)
		n.From, _ = raw["from"].(string)
	}

	return nil
}

func decodeEvents(v interface{}) []LifecycleEvent {
	items := stringSlice(v)
	events := make([]LifecycleEvent, 0, len(items))
	for _, s := range items {
		events = append(events, LifecycleEvent(s))
	}
	return events
}

func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intOr(v interface{}, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	default:
		return def
	}
}

func durationMSOr(v interface{}, def time.Duration) time.Duration {
	switch t := v.(type) {
	case int:
		return time.Duration(t) * time.Millisecond
	case int64:
		return time.Duration(t) * time.Millisecond
	case float64:
		return time.Duration(t) * time.Millisecond
	default:
		return def
	}
}

// UnmarshalYAML on CacheConfig accepts the TTL as a plain millisecond count.
func (c *CacheConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		TTL    int  `yaml:"ttl"`
		Bypass bool `yaml:"bypass"`
	}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	c.TTL = time.Duration(raw.TTL) * time.Millisecond
	c.Bypass = raw.Bypass
	return nil
}
