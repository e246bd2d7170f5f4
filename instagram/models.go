package instagram

// webProfileResponse mirrors the subset of the web_profile_info payload the
// fetcher consumes.
type webProfileResponse struct {
	Data   profileData `json:"data"`
	Status string      `json:"status"`
}

type profileData struct {
	User profileUser `json:"user"`
}

type profileUser struct {
	ID                       string     `json:"id"`
	Username                 string     `json:"username"`
	EdgeFollowedBy           edgeCount  `json:"edge_followed_by"`
	EdgeFollow               edgeCount  `json:"edge_follow"`
	IsPrivate                bool       `json:"is_private"`
	IsVerified               bool       `json:"is_verified"`
	ProfilePicURLHD          string     `json:"profile_pic_url_hd"`
	EdgeOwnerToTimelineMedia mediaEdges `json:"edge_owner_to_timeline_media"`
}

type edgeCount struct {
	Count int `json:"count"`
}

type mediaEdges struct {
	Count int         `json:"count"`
	Edges []mediaEdge `json:"edges"`
}

type mediaEdge struct {
	Node mediaNode `json:"node"`
}

type mediaNode struct {
	ID                 string    `json:"id"`
	Shortcode          string    `json:"shortcode"`
	EdgeLikedBy        edgeCount `json:"edge_liked_by"`
	EdgeMediaToComment edgeCount `json:"edge_media_to_comment"`
}
