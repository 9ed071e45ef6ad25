package entity

// App is the client registration the service holds on one instance.
type App struct {
	InstanceURL  string `json:"instanceUrl"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}
