package socialapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/identity"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/notify"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/friendship"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/group"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/newsflash"
)

// ---- requests ----

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
}

type friendshipTargetRequest struct {
	UserID string `json:"user_id"`
}

type createGroupRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	UserID string `json:"user_id"`
}

type createNewsflashRequest struct {
	Content    string `json:"content"`
	TargetType string `json:"target_type"`
	GroupID    string `json:"group_id,omitempty"`
	ClientRef  string `json:"client_ref,omitempty"`
}

type deviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
}

// ---- responses ----

type userSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

func toUserSummary(u identity.User) userSummary {
	return userSummary{ID: u.ID, Username: u.Username, FullName: u.FullName}
}

type usersResponse struct {
	Users []userSummary `json:"users"`
}

type friendRequestResponse struct {
	RequesterID string    `json:"requester_id"`
	AddresseeID string    `json:"addressee_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toFriendRequestResponse(f friendship.Friendship) friendRequestResponse {
	return friendRequestResponse{
		RequesterID: f.RequesterID,
		AddresseeID: f.AddresseeID(),
		CreatedAt:   f.CreatedAt,
	}
}

type friendRequestsResponse struct {
	Requests []friendRequestResponse `json:"requests"`
}

type groupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toGroupResponse(g group.Group) groupResponse {
	return groupResponse{ID: g.ID, Name: g.Name, CreatorID: g.CreatorID, CreatedAt: g.CreatedAt}
}

type groupsResponse struct {
	Groups []groupResponse `json:"groups"`
}

type invitationResponse struct {
	GroupID   string    `json:"group_id"`
	GroupName string    `json:"group_name"`
	InviterID string    `json:"inviter_id"`
	CreatedAt time.Time `json:"created_at"`
}

type invitationsResponse struct {
	Invitations []invitationResponse `json:"invitations"`
}

type membersResponse struct {
	Members []userSummary `json:"members"`
}

type newsflashResponse struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content"`
	TargetType string    `json:"target_type"`
	GroupID    string    `json:"group_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toNewsflashResponse(n newsflash.Newsflash) newsflashResponse {
	return newsflashResponse{
		ID:         n.ID,
		Seq:        n.Seq,
		AuthorID:   n.AuthorID,
		Content:    n.Content,
		TargetType: n.TargetType,
		GroupID:    n.GroupID,
		CreatedAt:  n.CreatedAt,
	}
}

type newsflashesResponse struct {
	Newsflashes []newsflashResponse `json:"newsflashes"`
}

func toNewsflashesResponse(list []newsflash.Newsflash) newsflashesResponse {
	out := make([]newsflashResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toNewsflashResponse(n))
	}
	return newsflashesResponse{Newsflashes: out}
}

type deviceResponse struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Active   bool   `json:"active"`
}

func toDeviceResponse(d notify.DeviceToken) deviceResponse {
	return deviceResponse{ID: d.ID, Platform: d.Platform, Active: d.Active}
}

// pageFromQuery reads page/limit query parameters. Invalid values fall
// back to defaults; the store clamps the limit.
func pageFromQuery(r *http.Request) newsflash.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return newsflash.Page{Page: page, Limit: limit}
}
