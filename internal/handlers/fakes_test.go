package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || strings.EqualFold(existing.Email, user.Email) {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByLogin(_ context.Context, login string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == strings.ToLower(login) || strings.EqualFold(user.Email, login) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *inMemoryUserStore) SetRefreshToken(_ context.Context, id, token string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[id] = user
	return nil
}

func (s *inMemoryUserStore) UpdateAvatar(_ context.Context, id, url string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.AvatarURL = url
	s.users[id] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdateCoverImage(_ context.Context, id, url string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImageURL = url
	s.users[id] = user
	return user, nil
}

type inMemoryVideoStore struct {
	videos  map[string]models.Video
	history []string
}

func newInMemoryVideoStore(videos ...models.Video) *inMemoryVideoStore {
	s := &inMemoryVideoStore{videos: make(map[string]models.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *inMemoryVideoStore) SetPublished(_ context.Context, id string, published bool) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Published = published
	s.videos[id] = video
	return nil
}

func (s *inMemoryVideoStore) ListByOwner(_ context.Context, ownerID string, publishedOnly bool, page repositories.Page, _ repositories.Sort) ([]models.VideoView, error) {
	var views []models.VideoView
	for _, video := range s.videos {
		if video.OwnerID != ownerID {
			continue
		}
		if publishedOnly && !video.Published {
			continue
		}
		views = append(views, models.VideoView{Video: video})
	}
	_ = page
	return views, nil
}

func (s *inMemoryVideoStore) RecordView(_ context.Context, videoID, viewerID string) error {
	video, ok := s.videos[videoID]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[videoID] = video
	s.history = append(s.history, fmt.Sprintf("%s:%s", viewerID, videoID))
	return nil
}

func (s *inMemoryVideoStore) WatchHistory(_ context.Context, userID string) ([]models.VideoView, error) {
	var views []models.VideoView
	for _, entry := range s.history {
		viewer, videoID, _ := strings.Cut(entry, ":")
		if viewer != userID {
			continue
		}
		if video, ok := s.videos[videoID]; ok {
			views = append(views, models.VideoView{Video: video})
		}
	}
	return views, nil
}

type inMemoryCommentStore struct {
	comments map[string]models.Comment
	authors  map[string]string
}

func newInMemoryCommentStore(comments ...models.Comment) *inMemoryCommentStore {
	s := &inMemoryCommentStore{comments: make(map[string]models.Comment), authors: make(map[string]string)}
	for _, c := range comments {
		s.comments[c.ID] = c
	}
	return s
}

func (s *inMemoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *inMemoryCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *inMemoryCommentStore) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = time.Now().UTC()
	s.comments[id] = comment
	return comment, nil
}

func (s *inMemoryCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *inMemoryCommentStore) ListForVideo(_ context.Context, videoID, viewerID string, _ repositories.Page) ([]models.CommentView, error) {
	_ = viewerID
	var views []models.CommentView
	for _, comment := range s.comments {
		if comment.VideoID != videoID {
			continue
		}
		views = append(views, models.CommentView{
			ID:        comment.ID,
			Content:   comment.Content,
			Username:  s.authors[comment.OwnerID],
			CreatedAt: comment.CreatedAt,
		})
	}
	return views, nil
}

type inMemorySubscriptionStore struct {
	edges    map[string]bool
	profiles map[string]models.ChannelProfile
}

func newInMemorySubscriptionStore() *inMemorySubscriptionStore {
	return &inMemorySubscriptionStore{edges: make(map[string]bool), profiles: make(map[string]models.ChannelProfile)}
}

func subscriptionKey(subscriberID, channelID string) string {
	return subscriberID + "->" + channelID
}

func (s *inMemorySubscriptionStore) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	key := subscriptionKey(subscriberID, channelID)
	if s.edges[key] {
		delete(s.edges, key)
		return false, nil
	}
	s.edges[key] = true
	return true, nil
}

func (s *inMemorySubscriptionStore) IsSubscribed(_ context.Context, subscriberID, channelID string) (bool, error) {
	return s.edges[subscriptionKey(subscriberID, channelID)], nil
}

func (s *inMemorySubscriptionStore) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	_ = viewerID
	profile, ok := s.profiles[username]
	if !ok {
		return models.ChannelProfile{}, repositories.ErrNotFound
	}
	return profile, nil
}

type inMemoryLikeStore struct {
	videoLikes   map[string]bool
	commentLikes map[string]bool
}

func newInMemoryLikeStore() *inMemoryLikeStore {
	return &inMemoryLikeStore{videoLikes: make(map[string]bool), commentLikes: make(map[string]bool)}
}

func (s *inMemoryLikeStore) ToggleVideo(_ context.Context, userID, videoID string) (bool, error) {
	key := userID + ":" + videoID
	if s.videoLikes[key] {
		delete(s.videoLikes, key)
		return false, nil
	}
	s.videoLikes[key] = true
	return true, nil
}

func (s *inMemoryLikeStore) ToggleComment(_ context.Context, userID, commentID string) (bool, error) {
	key := userID + ":" + commentID
	if s.commentLikes[key] {
		delete(s.commentLikes, key)
		return false, nil
	}
	s.commentLikes[key] = true
	return true, nil
}

func (s *inMemoryLikeStore) LikedVideos(_ context.Context, userID string) ([]models.VideoView, error) {
	_ = userID
	return nil, nil
}

type inMemoryPlaylistStore struct {
	playlists map[string]models.Playlist
}

func newInMemoryPlaylistStore(playlists ...models.Playlist) *inMemoryPlaylistStore {
	s := &inMemoryPlaylistStore{playlists: make(map[string]models.Playlist)}
	for _, p := range playlists {
		s.playlists[p.ID] = p
	}
	return s
}

func (s *inMemoryPlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *inMemoryPlaylistStore) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	var out []models.Playlist
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			out = append(out, playlist)
		}
	}
	return out, nil
}

func (s *inMemoryPlaylistStore) Update(_ context.Context, id, name, description string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	playlist.Name = name
	playlist.Description = description
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *inMemoryPlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *inMemoryPlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) error {
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, existing := range playlist.VideoIDs {
		if existing == videoID {
			return repositories.ErrConflict
		}
	}
	playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	s.playlists[playlistID] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, existing := range playlist.VideoIDs {
		if existing == videoID {
			playlist.VideoIDs = append(playlist.VideoIDs[:i], playlist.VideoIDs[i+1:]...)
			s.playlists[playlistID] = playlist
			return nil
		}
	}
	return repositories.ErrNotFound
}

type uploaderStub struct {
	images []string
	videos []string
	err    error
}

func (u *uploaderStub) UploadImage(_ context.Context, localPath, keyPrefix string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.images = append(u.images, localPath)
	return fmt.Sprintf("https://media.example.com/%s/%d", keyPrefix, len(u.images)), nil
}

func (u *uploaderStub) UploadVideo(_ context.Context, localPath, keyPrefix string) (string, float64, error) {
	if u.err != nil {
		return "", 0, u.err
	}
	u.videos = append(u.videos, localPath)
	return fmt.Sprintf("https://media.example.com/%s/%d", keyPrefix, len(u.videos)), 42.5, nil
}

type janitorStub struct {
	enqueued []string
}

func (j *janitorStub) Enqueue(_ context.Context, location string) error {
	j.enqueued = append(j.enqueued, location)
	return nil
}
