package models

// TradeInRequest is submitted once the wizard's last step is complete.
type TradeInRequest struct {
	Category           string            `json:"category"`
	ProductType        string            `json:"productType"`
	Specs              map[string]string `json:"specs"`
	ReplacementProduct string            `json:"replacementProduct"`
}
