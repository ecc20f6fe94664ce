package workflows

// Credentials are the connection parameters every database-facing call carries.
type Credentials struct {
	AuthType string            `json:"authType"`
	Host     string            `json:"host"`
	Port     int               `json:"port"`
	Username string            `json:"username"`
	Password string            `json:"password"`
	Database string            `json:"database"`
	Extra    map[string]string `json:"extra,omitempty"` // sslmode
}

// AuthResponse is the body of /workflows/v1/auth.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MetadataRequest asks for databases and schemas visible to the credentials.
type MetadataRequest struct {
	Type string `json:"type"`
	Credentials
}

// MetadataRow is one catalog/schema pair. The server answers with either the
// lower-case aliases or the information_schema column names.
type MetadataRow struct {
	CatalogName  string `json:"catalog_name,omitempty"`
	TableCatalog string `json:"TABLE_CATALOG,omitempty"`
	SchemaName   string `json:"schema_name,omitempty"`
	TableSchema  string `json:"TABLE_SCHEMA,omitempty"`
}

// Catalog returns whichever catalog field is set.
func (r MetadataRow) Catalog() string {
	if r.CatalogName != "" {
		return r.CatalogName
	}
	return r.TableCatalog
}

// Schema returns whichever schema field is set.
func (r MetadataRow) Schema() string {
	if r.SchemaName != "" {
		return r.SchemaName
	}
	return r.TableSchema
}

type MetadataResponse struct {
	Data []MetadataRow `json:"data"`
}

// MetadataFilters is the "metadata" block shared by check and start.
// Include and exclude filters are JSON documents encoded as strings.
type MetadataFilters struct {
	IncludeFilter      string `json:"include-filter"`
	ExcludeFilter      string `json:"exclude-filter"`
	TempTableRegex     string `json:"temp-table-regex"`
	ExcludeViews       bool   `json:"exclude_views"`
	ExcludeEmptyTables bool   `json:"exclude_empty_tables"`
}

type CheckRequest struct {
	Credentials Credentials     `json:"credentials"`
	Metadata    MetadataFilters `json:"metadata"`
}

// CheckResult is a single preflight check outcome.
type CheckResult struct {
	Success        bool   `json:"success"`
	SuccessMessage string `json:"successMessage,omitempty"`
	FailureMessage string `json:"failureMessage,omitempty"`
}

type CheckResponse struct {
	Data struct {
		DatabaseSchemaCheck CheckResult `json:"databaseSchemaCheck"`
		TablesCheck         CheckResult `json:"tablesCheck"`
		VersionCheck        CheckResult `json:"versionCheck"`
	} `json:"data"`
}

// Connection names the connection a workflow run is registered under.
type Connection struct {
	ConnectionName string `json:"connection_name"`
	QualifiedName  string `json:"connection_qualified_name"`
}

type StartRequest struct {
	Credentials Credentials     `json:"credentials"`
	Connection  Connection      `json:"connection"`
	Metadata    MetadataFilters `json:"metadata"`
	TenantID    string          `json:"tenant_id"`
}

type LatestOutputResponse struct {
	WorkflowID string `json:"workflow_id"`
}

// EntitySummary counts what a run extracted for one entity type.
type EntitySummary struct {
	TotalRecordCount int64 `json:"total_record_count"`
	ChunkCount       int64 `json:"chunk_count"`
}

// Summary is the body of /workflows/v1/summary/{id}.
type Summary struct {
	Types map[string]EntitySummary `json:"types"`
}

// InsightRequest selects the language model used for summaries and diagrams.
type InsightRequest struct {
	Model      string   `json:"model"`
	Candidates []string `json:"candidates"`
}

type AISummaryResponse struct {
	Summary string `json:"summary"`
}

type MermaidResponse struct {
	Mermaid string `json:"mermaid"`
}
