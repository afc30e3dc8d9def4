package dto

// AssetResponse is one candidate input file found under a study folder.
type AssetResponse struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
