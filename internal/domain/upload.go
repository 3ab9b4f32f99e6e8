package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload stores metadata about a recap video a user attached to a
// completed workout. The actual file resides in S3.
type Upload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecordID    primitive.ObjectID `bson:"recordId" json:"recordId"` // Link to the CompletedWorkout
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"` // The unique key (path/filename) in the S3 bucket - internal use
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"` // MIME type (e.g., "video/mp4")
	Size        int64              `bson:"size" json:"size"`               // File size in bytes
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
