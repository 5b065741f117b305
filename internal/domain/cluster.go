package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClusterDefinition is one named concept territory produced by a batch
// clustering run. LayoutX/LayoutY position the cluster on a [0,1]x[0,1]
// map for display only; similarity always goes through the centroid.
type ClusterDefinition struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Label              string         `gorm:"column:label;not null" json:"label"`
	Description        string         `gorm:"column:description" json:"description"`
	Keywords           datatypes.JSON `gorm:"type:jsonb;column:keywords" json:"keywords,omitempty"`
	LayoutX            float64        `gorm:"column:layout_x;not null" json:"layout_x"`
	LayoutY            float64        `gorm:"column:layout_y;not null" json:"layout_y"`
	Centroid           datatypes.JSON `gorm:"type:jsonb;column:centroid" json:"centroid,omitempty"`
	MemberCount        int            `gorm:"column:member_count;not null;default:0" json:"member_count"`
	PrimaryMemberCount int            `gorm:"column:primary_member_count;not null;default:0" json:"primary_member_count"`
	Generation         int64          `gorm:"column:generation;not null;default:0" json:"generation"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ClusterDefinition) TableName() string { return "cluster_definition" }

func (c *ClusterDefinition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type MembershipItemKind string

const (
	MembershipItemDocument MembershipItemKind = "document"
	MembershipItemClaim    MembershipItemKind = "claim"
)

// ClusterMembership softly assigns one document or claim to a cluster.
// Per item: at most one primary row, and the primary row carries the
// maximum confidence among the item's memberships. Items below the
// posterior threshold everywhere have no rows at all ("unclustered").
type ClusterMembership struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	ClusterID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"cluster_id"`
	ItemID     uuid.UUID          `gorm:"type:uuid;not null;index:idx_membership_item" json:"item_id"`
	ItemKind   MembershipItemKind `gorm:"column:item_kind;not null;index:idx_membership_item" json:"item_kind"`
	Confidence float64            `gorm:"column:confidence;not null" json:"confidence"`
	IsPrimary  bool               `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	CreatedAt  time.Time          `gorm:"not null;default:now()" json:"created_at"`
}

func (ClusterMembership) TableName() string { return "cluster_membership" }

func (m *ClusterMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
