// Package invalidation maps domain mutations to the response cache entries
// they make stale.
package invalidation

import "github.com/google/uuid"

// Kind names the entity type a mutation touched.
type Kind string

const (
	KindVideo   Kind = "video"
	KindLike    Kind = "like"
	KindComment Kind = "comment"
	KindFollow  Kind = "follow"
	KindUser    Kind = "user"
	// KindFlush drops every cached response. It carries no ids and has no
	// table entry.
	KindFlush Kind = "flush"
)

// Event reports that an entity was mutated. Which ids are required depends
// on the kind and the table in use.
type Event struct {
	Kind    Kind      `json:"kind"`
	VideoID uuid.UUID `json:"video_id,omitempty"`
	// UserID is the owner, author, follower or profile owner.
	UserID uuid.UUID `json:"user_id,omitempty"`
	// TargetUserID is the followee of a follow event.
	TargetUserID uuid.UUID `json:"target_user_id,omitempty"`
}

// VideoChanged is emitted on create, update, delete and processing updates.
func VideoChanged(videoID, ownerID uuid.UUID) Event {
	return Event{Kind: KindVideo, VideoID: videoID, UserID: ownerID}
}

// LikeChanged is emitted on like and unlike.
func LikeChanged(videoID, userID uuid.UUID) Event {
	return Event{Kind: KindLike, VideoID: videoID, UserID: userID}
}

// CommentChanged is emitted on comment add, edit and delete.
func CommentChanged(videoID, authorID uuid.UUID) Event {
	return Event{Kind: KindComment, VideoID: videoID, UserID: authorID}
}

// FollowChanged is emitted on follow and unfollow.
func FollowChanged(followerID, followingID uuid.UUID) Event {
	return Event{Kind: KindFollow, UserID: followerID, TargetUserID: followingID}
}

// CacheFlushed asks every process to drop its whole cache.
func CacheFlushed() Event {
	return Event{Kind: KindFlush}
}

// UserChanged is emitted when a public profile changes.
func UserChanged(userID uuid.UUID) Event {
	return Event{Kind: KindUser, UserID: userID}
}
