package models

// ModelCategory identifies the kind of model under evaluation.
type ModelCategory string

const (
	CategoryLLM        ModelCategory = "llm"
	CategorySTT        ModelCategory = "stt"
	CategoryTTS        ModelCategory = "tts"
	CategoryVAD        ModelCategory = "vad"
	CategoryEmbeddings ModelCategory = "embeddings"
)

// DeploymentTarget is a deployment environment a model can be recommended for.
type DeploymentTarget string

const (
	TargetOnDevice DeploymentTarget = "on-device"
	TargetServer   DeploymentTarget = "server"
	TargetCloudAPI DeploymentTarget = "cloud-api"
)

// ModelSpec describes a model registered for evaluation.
type ModelSpec struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	ModelType        ModelCategory    `json:"model_type"`
	SourceType       string           `json:"source_type"` // huggingface, local, api, ollama
	DeploymentTarget DeploymentTarget `json:"deployment_target"`

	ModelFamily  string `json:"model_family,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
	SourceURI    string `json:"source_uri,omitempty"`
	APIBaseURL   string `json:"api_base_url,omitempty"`
	APIKeyEnv    string `json:"api_key_env,omitempty"`

	ParameterCountB *float64 `json:"parameter_count_b,omitempty"`
	ModelSizeGB     *float64 `json:"model_size_gb,omitempty"`
	Quantization    string   `json:"quantization,omitempty"`
	ContextWindow   int      `json:"context_window,omitempty"`

	Tags  []string `json:"tags,omitempty"`
	Notes string   `json:"notes,omitempty"`

	IsReference bool   `json:"is_reference"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Tier is one of the four fixed educational difficulty levels used to bucket
// benchmark tasks. An empty Tier means the task is not tiered.
type Tier string

const (
	TierElementary Tier = "elementary"
	TierHighSchool Tier = "highschool"
	TierUndergrad  Tier = "undergrad"
	TierGrad       Tier = "grad"
)
