package sheet

// Config holds configuration for the spreadsheet connection.
type Config struct {
	// CredentialsFile is the path to the service-account JSON key.
	CredentialsFile string `mapstructure:"credentials_file" default:"credentials.json"`
	// SpreadsheetID is the document id from the spreadsheet URL.
	SpreadsheetID string `mapstructure:"spreadsheet_id" default:""`
	// SheetName is the tab title holding the synced table.
	SheetName string `mapstructure:"sheet_name" default:"sellers"`
	// SheetGID is the numeric grid id of the tab, required for row deletion.
	SheetGID int64 `mapstructure:"sheet_gid" default:"0"`
	// TimeoutSeconds bounds every individual API call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
