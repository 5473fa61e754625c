package bluesky

// Wire shapes for the AppView and PDS XRPC endpoints the engine consumes.

type profileResponse struct {
	DID            string `json:"did"`
	Handle         string `json:"handle"`
	FollowersCount int    `json:"followersCount"`
}

type followerEntry struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

type followersResponse struct {
	Followers []followerEntry `json:"followers"`
	Cursor    string          `json:"cursor"`
}

type createRecordRequest struct {
	Repo       string       `json:"repo"`
	Collection string       `json:"collection"`
	Record     followRecord `json:"record"`
}

type followRecord struct {
	Type      string `json:"$type"`
	Subject   string `json:"subject"`
	CreatedAt string `json:"createdAt"`
}

type listRecordsResponse struct {
	Records []recordEntry `json:"records"`
	Cursor  string        `json:"cursor"`
}

type recordEntry struct {
	URI   string      `json:"uri"`
	Value recordValue `json:"value"`
}

type recordValue struct {
	Subject string `json:"subject"`
}

type deleteRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	Sub          string `json:"sub"`
}

type authserverMetadata struct {
	Issuer        string `json:"issuer"`
	TokenEndpoint string `json:"token_endpoint"`
}

const followCollection = "app.bsky.graph.follow"
