package storage

// AppendCommandToHistory records a command, keeping the last 20 per guild.
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandsHistory = append(r.CommandsHistory, command)
		if n := len(r.CommandsHistory); n > commandHistoryLimit {
			r.CommandsHistory = r.CommandsHistory[n-commandHistoryLimit:]
		}
		return nil
	})
}

// CommandHistory returns the guild's recorded commands, oldest first.
func (s *Storage) CommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	r, err := s.record(guildID)
	if err != nil {
		return nil, err
	}
	return r.CommandsHistory, nil
}
