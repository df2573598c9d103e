package config

import (
	"fmt"
)

// Validate checks structural invariants on the raw configuration: unique
// keys, resolvable references, recognized type tags, and well-formed
// pipelines. Snapshot-level checks (secret resolution, adapter construction)
// happen later, during snapshot build.
func (c *Config) Validate() error {
	providersByKey := make(map[string]*ProviderConfig, len(c.Providers))
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Key == "" {
			return fmt.Errorf("provider %d: key is required", i)
		}
		if _, dup := providersByKey[p.Key]; dup {
			return fmt.Errorf("provider %q: duplicate key", p.Key)
		}
		pt, err := ParseProviderType(p.Type)
		if err != nil {
			return fmt.Errorf("provider %q: %w", p.Key, err)
		}
		if err := validateProviderFields(p, pt); err != nil {
			return fmt.Errorf("provider %q: %w", p.Key, err)
		}
		providersByKey[p.Key] = p
	}

	modelKeys := make(map[string]bool, len(c.Models))
	for i := range c.Models {
		m := &c.Models[i]
		if m.Key == "" {
			return fmt.Errorf("model %d: key is required", i)
		}
		if modelKeys[m.Key] {
			return fmt.Errorf("model %q: duplicate key", m.Key)
		}
		modelKeys[m.Key] = true
		if m.Type == "" {
			return fmt.Errorf("model %q: type is required", m.Key)
		}
		p, ok := providersByKey[m.Provider]
		if !ok {
			return fmt.Errorf("model %q: provider %q not found", m.Key, m.Provider)
		}
		if m.IsEnabled() && !p.IsEnabled() {
			return fmt.Errorf("model %q: provider %q is disabled", m.Key, m.Provider)
		}
	}

	pipelineNames := make(map[string]bool, len(c.Pipelines))
	for i := range c.Pipelines {
		pl := &c.Pipelines[i]
		if pl.Name == "" {
			return fmt.Errorf("pipeline %d: name is required", i)
		}
		if pipelineNames[pl.Name] {
			return fmt.Errorf("pipeline %q: duplicate name", pl.Name)
		}
		pipelineNames[pl.Name] = true
		if _, err := ParsePipelineType(pl.Type); err != nil {
			return fmt.Errorf("pipeline %q: %w", pl.Name, err)
		}
		if err := validatePlugins(pl); err != nil {
			return fmt.Errorf("pipeline %q: %w", pl.Name, err)
		}
	}
	return nil
}

func validateProviderFields(p *ProviderConfig, pt ProviderType) error {
	switch pt {
	case ProviderOpenAI, ProviderAnthropic:
		if p.APIKey.IsZero() {
			return fmt.Errorf("api_key is required")
		}
	case ProviderAzure:
		if p.APIKey.IsZero() {
			return fmt.Errorf("api_key is required")
		}
		if p.ResourceName == "" && p.BaseURL == "" {
			return fmt.Errorf("resource_name or base_url is required")
		}
		if p.APIVersion == "" {
			return fmt.Errorf("api_version is required")
		}
	case ProviderBedrock:
		if p.Region == "" {
			return fmt.Errorf("region is required")
		}
		if !p.UseIAMRole && (p.AccessKey.IsZero() || p.SecretKey.IsZero()) {
			return fmt.Errorf("either use_iam_role or access_key and secret_key are required")
		}
	case ProviderVertexAI:
		if p.ProjectID == "" && p.APIKey.IsZero() {
			return fmt.Errorf("project_id is required for the service-account path")
		}
		if p.Location == "" && p.APIKey.IsZero() {
			return fmt.Errorf("location is required for the service-account path")
		}
		// credentials_path may fall back to GOOGLE_APPLICATION_CREDENTIALS;
		// checked at adapter build time.
	}
	return nil
}

// validatePlugins enforces the pipeline plugin shape: each entry configures
// exactly one plugin and the model-router appears exactly once and last.
// Router entries naming a model that does not exist are allowed; the router
// warns and skips them at request time, so removing a model from a live
// configuration never blocks a reload.
func validatePlugins(pl *PipelineConfig) error {
	if len(pl.Plugins) == 0 {
		return fmt.Errorf("at least one plugin (model-router) is required")
	}
	routerSeen := false
	for i, pc := range pl.Plugins {
		set := 0
		if pc.Logging != nil {
			set++
		}
		if pc.Tracing != nil {
			set++
		}
		if pc.ModelRouter != nil {
			set++
		}
		if set != 1 {
			return fmt.Errorf("plugin %d: exactly one plugin per entry", i)
		}
		if pc.ModelRouter != nil {
			if routerSeen {
				return fmt.Errorf("plugin %d: model-router configured more than once", i)
			}
			routerSeen = true
			if i != len(pl.Plugins)-1 {
				return fmt.Errorf("model-router must be the last plugin")
			}
			if len(pc.ModelRouter.Models) == 0 {
				return fmt.Errorf("model-router requires at least one model")
			}
			for _, entry := range pc.ModelRouter.Models {
				if entry.Key == "" {
					return fmt.Errorf("model-router entry with empty key")
				}
			}
		}
	}
	if !routerSeen {
		return fmt.Errorf("model-router plugin is required")
	}
	return nil
}
