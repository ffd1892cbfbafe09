package models

// Game is one catalogued title. Optional columns are pointers so that NULL
// survives the round trip to JSON as null.
type Game struct {
	ID          int      `json:"id_game" db:"id_game"`
	Name        string   `json:"name" db:"name"`
	ReleaseDate *string  `json:"release_date" db:"release_date"`
	PlayersNum  *int     `json:"players_num" db:"players_num"`
	CoverURL    *string  `json:"cover_url" db:"cover_url"`
	Rating      *float64 `json:"rating" db:"rating"`
	PublisherID *int     `json:"id_publisher" db:"id_publisher"`

	// PublisherName is filled from the publishers join on read.
	PublisherName *string `json:"publisher_name,omitempty" db:"-"`
}

// GameUpdate carries a partial update. A field that was absent from the
// request body has Set == false and is never written.
type GameUpdate struct {
	Name        Nullable[string]  `json:"name"`
	ReleaseDate Nullable[string]  `json:"release_date"`
	PlayersNum  Nullable[int]     `json:"players_num"`
	CoverURL    Nullable[string]  `json:"cover_url"`
	Rating      Nullable[float64] `json:"rating"`
	PublisherID Nullable[int]     `json:"id_publisher"`
}

// IsEmpty reports whether no field was supplied.
func (u GameUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.ReleaseDate.Set && !u.PlayersNum.Set &&
		!u.CoverURL.Set && !u.Rating.Set && !u.PublisherID.Set
}
