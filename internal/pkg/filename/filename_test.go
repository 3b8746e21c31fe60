package filename

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "photo.png", "photo.png"},
		{"spaces", "my summer photo.jpg", "my_summer_photo.jpg"},
		{"accents", "Toallitas Íntimas.jpeg", "Toallitas_Intimas.jpeg"},
		{"path traversal", "../../etc/passwd", "etc_passwd"},
		{"windows path", `C:\Users\me\pic.gif`, "C_Users_me_pic.gif"},
		{"hidden file", ".htaccess", "htaccess"},
		{"symbols", "a$b%c!.png", "abc.png"},
		{"non latin only", "фото", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"photo.PNG", "png"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
		{"trailing.", ""},
		{"image.JpEg", "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Ext(tt.input))
		})
	}
}
