package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageType(t *testing.T) {
	assert.True(t, ValidateImageType("image/png", "a.bin"))
	assert.True(t, ValidateImageType("image/jpeg; charset=binary", ""))
	assert.True(t, ValidateImageType("", "photo.JPEG"))
	assert.False(t, ValidateImageType("video/mp4", "clip.mp4"))
	assert.False(t, ValidateImageType("", "notes.txt"))
}

func TestKeys(t *testing.T) {
	k := PhotoKey(3, 17, "me.JPEG")
	assert.True(t, strings.HasPrefix(k, "photos/3/17-"), k)
	assert.True(t, strings.HasSuffix(k, ".jpg"), k)

	g := GalleryKey(9, "pic.png")
	assert.True(t, strings.HasPrefix(g, "gallery/9/"), g)
	assert.True(t, strings.HasSuffix(g, ".png"), g)
	assert.NotEqual(t, g, GalleryKey(9, "pic.png"))
}

func TestURL(t *testing.T) {
	var nilStore *S3
	assert.Equal(t, "", nilStore.URL("photos/1/a.png"))

	s := &S3{cfg: S3Config{Region: "ap-south-1", MediaBucket: "club-media"}}
	assert.Equal(t, "https://club-media.s3.ap-south-1.amazonaws.com/gallery/1/x.png", s.URL("gallery/1/x.png"))
	assert.Equal(t, "", s.URL(""))

	s.cfg.PublicBaseURL = "https://cdn.example.edu/"
	assert.Equal(t, "https://cdn.example.edu/gallery/1/x.png", s.URL("gallery/1/x.png"))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/webp", ContentTypeForFilename("a.webp"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("a.exe"))
}
