package model

// Credential is a scoped registry credential. Tokens are masked in logs.
type Credential struct {
	Ref           string
	Token         string `masq:"secret"`
	PlatformToken string `masq:"secret"`
}

// Clear drops token material
func (c *Credential) Clear() {
	c.Token = ""
	c.PlatformToken = ""
}
