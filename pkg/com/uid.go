package com

import "github.com/rs/xid"

// Uid is a sortable unique id for socket connections and the sessions
// they spawn.
type Uid struct {
	xid.ID
}

func NewUid() Uid { return Uid{xid.New()} }

// Short renders an abbreviated id for log fields.
func (u Uid) Short() string {
	s := u.String()
	return s[:3] + "." + s[len(s)-3:]
}
