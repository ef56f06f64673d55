package instagram

// Profile is the part of an account's profile the crawl consumes
type Profile struct {
	ID            string
	Username      string
	FollowerCount int
	FolloweeCount int
	IsPrivate     bool
}

// UserRef identifies an account in a listing
type UserRef struct {
	ID       string
	Username string
}

// Post is one media item with its like count
type Post struct {
	ID        string
	Shortcode string
	LikeCount int
}

// UserPage is one page of a follower or followee listing
type UserPage struct {
	Users      []UserRef
	NextCursor string
}

// PostPage is one page of a user's feed
type PostPage struct {
	Posts      []Post
	NextCursor string
}

// Credentials is a login/password pair with an optional TOTP secret
type Credentials struct {
	Username   string
	Password   string
	TOTPSecret string
}

// Session holds the cookies of an authenticated login
type Session struct {
	Username  string
	UserID    string
	SessionID string
	CSRFToken string
}

// wire formats

type webProfileResponse struct {
	Data struct {
		User *struct {
			ID         string `json:"id"`
			Username   string `json:"username"`
			IsPrivate  bool   `json:"is_private"`
			FollowedBy struct {
				Count int `json:"count"`
			} `json:"edge_followed_by"`
			Follow struct {
				Count int `json:"count"`
			} `json:"edge_follow"`
		} `json:"user"`
	} `json:"data"`
	RequiresToLogin bool   `json:"requires_to_login"`
	Status          string `json:"status"`
}

type userInfoResponse struct {
	User *struct {
		PK             flexID `json:"pk"`
		Username       string `json:"username"`
		IsPrivate      bool   `json:"is_private"`
		FollowerCount  int    `json:"follower_count"`
		FollowingCount int    `json:"following_count"`
	} `json:"user"`
	Status string `json:"status"`
}

type wireUser struct {
	PK       flexID `json:"pk"`
	Username string `json:"username"`
}

type friendshipsResponse struct {
	Users     []wireUser `json:"users"`
	NextMaxID flexID     `json:"next_max_id"`
	Status    string     `json:"status"`
}

type feedResponse struct {
	Items []struct {
		PK        flexID `json:"pk"`
		Code      string `json:"code"`
		LikeCount int    `json:"like_count"`
	} `json:"items"`
	MoreAvailable bool   `json:"more_available"`
	NextMaxID     flexID `json:"next_max_id"`
	Status        string `json:"status"`
}

type likersResponse struct {
	Users  []wireUser `json:"users"`
	Status string     `json:"status"`
}

type loginResponse struct {
	Authenticated     bool   `json:"authenticated"`
	User              bool   `json:"user"`
	UserID            string `json:"userId"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	CheckpointURL     string `json:"checkpoint_url"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	TwoFactorInfo     struct {
		Identifier string `json:"two_factor_identifier"`
	} `json:"two_factor_info"`
}

type errorResponse struct {
	Message       string `json:"message"`
	Status        string `json:"status"`
	RequireLogin  bool   `json:"require_login"`
	CheckpointURL string `json:"checkpoint_url"`
}
