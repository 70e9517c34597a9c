package domain

// JoinedRow is the field union of one track record and its audio features.
// Feature values win where both sources carry the same field.
type JoinedRow struct {
	TrackMetadata
	AudioFeatures

	// FeaturesMissing marks a track with no usable feature record. The
	// embedded AudioFeatures is zero in that case.
	FeaturesMissing bool
}

// ID resolves the ambiguity between the two embedded records.
func (r JoinedRow) ID() string {
	if !r.FeaturesMissing && r.AudioFeatures.ID != "" {
		return r.AudioFeatures.ID
	}
	return r.TrackMetadata.ID
}

// DurationMs resolves the ambiguity between the two embedded records.
func (r JoinedRow) DurationMs() int {
	if !r.FeaturesMissing {
		return r.AudioFeatures.DurationMs
	}
	return r.TrackMetadata.DurationMs
}

func joinRow(track TrackMetadata, features *AudioFeatures) JoinedRow {
	if features == nil {
		return JoinedRow{TrackMetadata: track, FeaturesMissing: true}
	}
	return JoinedRow{TrackMetadata: track, AudioFeatures: *features}
}

// JoinPositional merges the two lists index by index. Both lists must come
// from the same playlist and have equal length; otherwise nothing is joined.
func JoinPositional(tracks TrackList, features FeatureList) ([]JoinedRow, error) {
	if tracks.PlaylistID != features.PlaylistID || len(tracks.Tracks) != len(features.Features) {
		return nil, &JoinMismatchError{
			TrackPlaylistID:   tracks.PlaylistID,
			FeaturePlaylistID: features.PlaylistID,
			Tracks:            len(tracks.Tracks),
			Features:          len(features.Features),
		}
	}

	rows := make([]JoinedRow, len(tracks.Tracks))
	for i, track := range tracks.Tracks {
		rows[i] = joinRow(track, features.Features[i])
	}
	return rows, nil
}

// JoinByID merges feature records onto tracks by identifier. Order follows
// the track list; tracks without a feature record are marked FeaturesMissing.
func JoinByID(tracks TrackList, features FeatureList) ([]JoinedRow, error) {
	if tracks.PlaylistID != features.PlaylistID {
		return nil, &JoinMismatchError{
			TrackPlaylistID:   tracks.PlaylistID,
			FeaturePlaylistID: features.PlaylistID,
			Tracks:            len(tracks.Tracks),
			Features:          len(features.Features),
		}
	}

	byID := make(map[string]*AudioFeatures, len(features.Features))
	for _, f := range features.Features {
		if f == nil || f.ID == "" {
			continue
		}
		if _, seen := byID[f.ID]; !seen {
			byID[f.ID] = f
		}
	}

	rows := make([]JoinedRow, len(tracks.Tracks))
	for i, track := range tracks.Tracks {
		rows[i] = joinRow(track, byID[track.ID])
	}
	return rows, nil
}
