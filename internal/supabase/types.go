package supabase

// Project represents a Supabase project.
type Project struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Region         string `json:"region"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// Organization represents a Supabase organization.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// APIKey is a project API key.
type APIKey struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	APIKey      string `json:"api_key"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// APIKeyInput is the payload for creating an API key.
type APIKeyInput struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// EdgeFunction represents a deployed edge function.
type EdgeFunction struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Version   int    `json:"version"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// FunctionInput is the payload for deploying an edge function.
type FunctionInput struct {
	Slug   string `json:"slug"`
	Name   string `json:"name,omitempty"`
	Body   string `json:"body"`
	Verify bool   `json:"verify_jwt"`
}

// Branch represents a database preview branch.
type Branch struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProjectRef string `json:"project_ref"`
	IsDefault  bool   `json:"is_default"`
	Status     string `json:"status"`
}

// BranchInput is the payload for creating a branch.
type BranchInput struct {
	BranchName string `json:"branch_name"`
	Region     string `json:"region,omitempty"`
}

// Secret is a project secret name/value pair. Values are write-mostly;
// list responses may omit them.
type Secret struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Backup describes one database backup.
type Backup struct {
	Status     string `json:"status"`
	IsPhysical bool   `json:"is_physical_backup"`
	InsertedAt string `json:"inserted_at"`
}

// BackupsResponse is the backups listing for a project.
type BackupsResponse struct {
	Region  string   `json:"region"`
	Backups []Backup `json:"backups"`
}
