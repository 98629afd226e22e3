package model

// Image is a stored detection result. Base64 holds the annotated JPEG.
// Access lists the user ids allowed to see the image and is never empty:
// the creator is added at insert time.
type Image struct {
	ID        string
	Base64    string
	Access    []string
	CreatedAt int64
	UpdatedAt int64
}
