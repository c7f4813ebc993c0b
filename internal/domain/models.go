// Package domain defines the persisted entities of the bootcamp directory:
// bootcamps, courses, users, and reviews. All types are mapped to MongoDB
// collections with bson tags and expose JSON shapes consumed by the HTTP API.
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles. Publishers may create bootcamps; admins bypass ownership checks.
const (
	RoleUser      = "user"
	RolePublisher = "publisher"
	RoleAdmin     = "admin"
)

// Minimum skill levels accepted for a course.
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

// Location is a GeoJSON point with the formatted address it was resolved
// from. Coordinates are [longitude, latitude], matching the 2dsphere index.
type Location struct {
	Type             string    `json:"type,omitempty"             bson:"type,omitempty"`
	Coordinates      []float64 `json:"coordinates,omitempty"      bson:"coordinates,omitempty"`
	FormattedAddress string    `json:"formattedAddress,omitempty" bson:"formattedAddress,omitempty"`
	Street           string    `json:"street,omitempty"           bson:"street,omitempty"`
	City             string    `json:"city,omitempty"             bson:"city,omitempty"`
	State            string    `json:"state,omitempty"            bson:"state,omitempty"`
	Zipcode          string    `json:"zipcode,omitempty"          bson:"zipcode,omitempty"`
	Country          string    `json:"country,omitempty"          bson:"country,omitempty"`
}

// Bootcamp is the root resource. Every bootcamp is owned by exactly one user;
// deleting a bootcamp removes its courses and reviews (handled explicitly in
// the service layer - Mongo does not cascade).
//
// AverageCost and AverageRating are derived: they are recomputed from the
// bootcamp's courses and reviews after each mutation of those collections.
type Bootcamp struct {
	ID            primitive.ObjectID `json:"id"                      bson:"_id,omitempty"`
	Name          string             `json:"name"                    bson:"name"`
	Slug          string             `json:"slug,omitempty"          bson:"slug,omitempty"`
	Description   string             `json:"description"             bson:"description"`
	Website       string             `json:"website,omitempty"       bson:"website,omitempty"`
	Phone         string             `json:"phone,omitempty"         bson:"phone,omitempty"`
	Email         string             `json:"email,omitempty"         bson:"email,omitempty"`
	Address       string             `json:"address,omitempty"       bson:"address,omitempty"`
	Location      Location           `json:"location,omitempty"      bson:"location,omitempty"`
	Careers       []string           `json:"careers,omitempty"       bson:"careers,omitempty"`
	AverageRating float64            `json:"averageRating,omitempty" bson:"averageRating,omitempty"`
	AverageCost   float64            `json:"averageCost,omitempty"   bson:"averageCost,omitempty"`
	Photo         string             `json:"photo,omitempty"         bson:"photo,omitempty"`
	Housing       bool               `json:"housing"                 bson:"housing"`
	JobAssistance bool               `json:"jobAssistance"           bson:"jobAssistance"`
	JobGuarantee  bool               `json:"jobGuarantee"            bson:"jobGuarantee"`
	AcceptGI      bool               `json:"acceptGi"                bson:"acceptGi"`
	User          primitive.ObjectID `json:"user"                    bson:"user"`
	CreatedAt     time.Time          `json:"createdAt"               bson:"createdAt"`
}

// Course belongs to exactly one bootcamp and records who created it. A course
// cannot outlive its bootcamp.
type Course struct {
	ID            primitive.ObjectID `json:"id"                     bson:"_id,omitempty"`
	Title         string             `json:"title"                  bson:"title"`
	Description   string             `json:"description"            bson:"description"`
	Weeks         int                `json:"weeks"                  bson:"weeks"`
	Tuition       float64            `json:"tuition"                bson:"tuition"`
	MinimumSkill  string             `json:"minimumSkill"           bson:"minimumSkill"`
	Scholarship   bool               `json:"scholarshipAvailable"   bson:"scholarshipAvailable"`
	Bootcamp      primitive.ObjectID `json:"bootcamp"               bson:"bootcamp"`
	User          primitive.ObjectID `json:"user"                   bson:"user"`
	BootcampInfo  *BootcampRef       `json:"bootcampInfo,omitempty" bson:"bootcampInfo,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"              bson:"createdAt"`
}

// BootcampRef is the eagerly attached slice of a parent bootcamp returned on
// populated course and review reads.
type BootcampRef struct {
	ID          primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	Name        string             `json:"name"        bson:"name"`
	Description string             `json:"description" bson:"description"`
}

// User is an account. The bcrypt password hash and the reset-token pair are
// never serialized to clients.
type User struct {
	ID                 primitive.ObjectID `json:"id"        bson:"_id,omitempty"`
	Name               string             `json:"name"      bson:"name"`
	Email              string             `json:"email"     bson:"email"`
	Role               string             `json:"role"      bson:"role"`
	Password           string             `json:"-"         bson:"password"`
	ResetPasswordToken string             `json:"-"         bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpire time.Time         `json:"-"         bson:"resetPasswordExpire,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Owns reports whether the user owns a record created by ownerID, or is an
// admin. This is the single ownership predicate used by all mutation paths.
func (u *User) Owns(ownerID primitive.ObjectID) bool {
	return u.ID == ownerID || u.IsAdmin()
}

// Review is a rating of a bootcamp by a user. At most one review may exist
// per (user, bootcamp) pair; a unique index enforces it.
type Review struct {
	ID           primitive.ObjectID `json:"id"                     bson:"_id,omitempty"`
	Title        string             `json:"title"                  bson:"title"`
	Text         string             `json:"text"                   bson:"text"`
	Rating       int                `json:"rating"                 bson:"rating"`
	Bootcamp     primitive.ObjectID `json:"bootcamp"               bson:"bootcamp"`
	User         primitive.ObjectID `json:"user"                   bson:"user"`
	BootcampInfo *BootcampRef       `json:"bootcampInfo,omitempty" bson:"bootcampInfo,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"              bson:"createdAt"`
}
