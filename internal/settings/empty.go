package settings

import "fmt"

// List names a collection that can be shown empty.
type List string

const (
	ListCenters List = "centers"
	ListStaff   List = "staff"
	ListCourses List = "courses"
	ListRooms   List = "rooms"
	ListSources List = "sources"
)

// EmptyState describes what an empty list shows: a message, a call to
// action and an icon name. No action is wired yet, so Implemented is false
// for every list.
type EmptyState struct {
	List        List
	MessageKey  string
	ActionKey   string
	Icon        string
	Implemented bool
}

var emptyIcons = map[List]string{
	ListCenters: "building",
	ListStaff:   "users",
	ListCourses: "book-open",
	ListRooms:   "door-open",
	ListSources: "share-2",
}

func Empty(list List) (EmptyState, error) {
	icon, ok := emptyIcons[list]
	if !ok {
		return EmptyState{}, fmt.Errorf("settings: unknown list %q", list)
	}
	return EmptyState{
		List:       list,
		MessageKey: "empty." + string(list),
		ActionKey:  "empty." + string(list) + "Action",
		Icon:       icon,
	}, nil
}

// TriggerEmptyAction is the call to action of an empty list. None is
// implemented; no request is made.
func TriggerEmptyAction(list List) error {
	if _, err := Empty(list); err != nil {
		return err
	}
	return ErrNotImplemented
}

// ContentList is the list shown under an admin sub-tab; info has none.
func ContentList(tab AdminTab) (List, bool) {
	switch tab {
	case AdminStaff, AdminCourses, AdminRooms, AdminSources:
		return List(tab), true
	}
	return "", false
}
