package model

// EmailAddress 身份源返回的邮箱条目
type EmailAddress struct {
	ID           string `json:"id,omitempty"`
	EmailAddress string `json:"emailAddress"`
}

// AuthorProfile 外部身份源的作者资料，只取 feed 需要的字段
type AuthorProfile struct {
	ID              string         `json:"id"`
	FirstName       string         `json:"firstName"`
	LastName        string         `json:"lastName"`
	EmailAddresses  []EmailAddress `json:"emailAddresses"`
	ProfileImageURL string         `json:"profileImageUrl"`
}

// DisplayName 没有名字的用户显示为 "shadow"
func (a AuthorProfile) DisplayName() string {
	if a.FirstName == "" {
		return "shadow"
	}
	return a.FirstName
}

// FeedEntry 帖子与作者的内存拼接结果，不落库
type FeedEntry struct {
	Post
	Author AuthorProfile `json:"author"`
}
