package model

// Release describes when and where a movie premiered.
type Release struct {
    Year    int    `json:"year" validate:"required,gt=1800"`
    Country string `json:"country" validate:"required"`
}

// Movie is a catalog entry that screenings reference.  Duration is the
// running time of the feature in minutes and is the value the schedule
// engine uses when it computes a screening's effective interval.
//
// Fields:
//  ID             – movies.id
//  Title          – movies.title
//  Director       – movies.director
//  Release        – movies.release_year / movies.release_country
//  Duration       – movies.duration (minutes, > 0)
//  AgeRestriction – movies.age_restriction
//  Cast           – movies.cast_members (JSON array)
//  Genres         – movies.genres (JSON array)
//  Description    – movies.description
type Movie struct {
    ID             uint64   `json:"_id"`
    Title          string   `json:"title"`
    Director       string   `json:"director"`
    Release        Release  `json:"release"`
    Duration       int      `json:"duration"`
    AgeRestriction int      `json:"ageRestriction"`
    Cast           []string `json:"cast"`
    Genres         []string `json:"genres"`
    Description    string   `json:"description"`
}

// MoviePatch carries the fields of a partial movie update.  A nil field
// is left untouched.
type MoviePatch struct {
    Title          *string   `json:"title,omitempty"`
    Director       *string   `json:"director,omitempty"`
    Release        *Release  `json:"release,omitempty"`
    Duration       *int      `json:"duration,omitempty"`
    AgeRestriction *int      `json:"ageRestriction,omitempty"`
    Cast           *[]string `json:"cast,omitempty"`
    Genres         *[]string `json:"genres,omitempty"`
    Description    *string   `json:"description,omitempty"`
}

// Apply returns a copy of m with every non-nil field of p written over it.
func (p MoviePatch) Apply(m Movie) Movie {
    if p.Title != nil {
        m.Title = *p.Title
    }
    if p.Director != nil {
        m.Director = *p.Director
    }
    if p.Release != nil {
        m.Release = *p.Release
    }
    if p.Duration != nil {
        m.Duration = *p.Duration
    }
    if p.AgeRestriction != nil {
        m.AgeRestriction = *p.AgeRestriction
    }
    if p.Cast != nil {
        m.Cast = append([]string(nil), (*p.Cast)...)
    }
    if p.Genres != nil {
        m.Genres = append([]string(nil), (*p.Genres)...)
    }
    if p.Description != nil {
        m.Description = *p.Description
    }
    return m
}
