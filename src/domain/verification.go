package domain

// VerificationDetails carries a human-readable outcome per DNS check so the
// dashboard can tell the tenant exactly which record is missing.
type VerificationDetails struct {
	CNAME string `json:"cname"`
	TXT   string `json:"txt"`
}

// VerificationResult is the outcome of one verification pass over a domain.
// Success requires both sub-checks; a failed pass never mutates the record.
type VerificationResult struct {
	CNAMEOk bool                `json:"cnameOk"`
	TXTOk   bool                `json:"txtOk"`
	Success bool                `json:"success"`
	Details VerificationDetails `json:"details"`
}
