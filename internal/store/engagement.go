package store

import (
	"context"
	"fmt"
)

const interactionColumns = "i.id, i.video_ref, v.video_id, i.interaction_id, i.title, i.type, i.action_type, i.start_time_seconds, i.end_time_seconds, i.duration_seconds, i.link, i.total_clicks, i.created_at"

func scanInteraction(scanner rowScanner) (*InteractionStat, error) {
	var (
		it         InteractionStat
		createdRaw string
	)
	if err := scanner.Scan(&it.ID, &it.VideoRef, &it.VideoID, &it.InteractionID, &it.Title, &it.Type, &it.ActionType,
		&it.StartTimeSeconds, &it.EndTimeSeconds, &it.DurationSeconds, &it.Link, &it.TotalClicks, &createdRaw); err != nil {
		return nil, err
	}
	it.CreatedAt = mustTime(createdRaw)
	return &it, nil
}

// GetInteraction returns the interaction row for (videoRef, interactionID), or nil.
func (s *Store) GetInteraction(ctx context.Context, videoRef, interactionID int64) (*InteractionStat, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+interactionColumns+
		" FROM interaction_stats i JOIN videos v ON v.id = i.video_ref WHERE i.video_ref = ? AND i.interaction_id = ?",
		videoRef, interactionID)
	it, err := scanInteraction(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get interaction %d: %w", interactionID, err)
	}
	return it, nil
}

// UpsertInteraction writes every column of the interaction row. Callers merge
// with the existing row first.
func (s *Store) UpsertInteraction(ctx context.Context, it InteractionStat) (*InteractionStat, error) {
	id, err := s.upsertReturningID(ctx, `
		INSERT INTO interaction_stats (video_ref, interaction_id, title, type, action_type, start_time_seconds,
			end_time_seconds, duration_seconds, link, total_clicks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_ref, interaction_id) DO UPDATE SET
			title = excluded.title,
			type = excluded.type,
			action_type = excluded.action_type,
			start_time_seconds = excluded.start_time_seconds,
			end_time_seconds = excluded.end_time_seconds,
			duration_seconds = excluded.duration_seconds,
			link = excluded.link,
			total_clicks = excluded.total_clicks,
			created_at = excluded.created_at
		RETURNING id`,
		it.VideoRef, it.InteractionID, it.Title, it.Type, it.ActionType, it.StartTimeSeconds,
		it.EndTimeSeconds, it.DurationSeconds, it.Link, it.TotalClicks, formatTime(it.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert interaction %d: %w", it.InteractionID, err)
	}
	it.ID = id
	return &it, nil
}

// ListInteractions returns interactions ordered by total clicks, highest first.
func (s *Store) ListInteractions(ctx context.Context, opts ListOptions) ([]InteractionStat, int, error) {
	from := "interaction_stats i JOIN videos v ON v.id = i.video_ref"
	where, args := filterClause(opts, "v.video_id", "")
	total, err := s.count(ctx, from+where, args)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+interactionColumns+" FROM "+from+where+
		" ORDER BY i.total_clicks DESC, i.id"+pageClause(opts), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var out []InteractionStat
	for rows.Next() {
		it, err := scanInteraction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, *it)
	}
	return out, total, rows.Err()
}

const questionColumns = "q.id, q.video_ref, v.video_id, q.question_id, q.title, q.type, q.video_time_seconds, q.average_answer_time_seconds, q.total_answered, q.total_correctly_answered, q.created_at"

func scanQuestion(scanner rowScanner) (*QuestionStat, error) {
	var (
		q          QuestionStat
		createdRaw string
	)
	if err := scanner.Scan(&q.ID, &q.VideoRef, &q.VideoID, &q.QuestionID, &q.Title, &q.Type, &q.VideoTimeSeconds,
		&q.AverageAnswerTimeSeconds, &q.TotalAnswered, &q.TotalCorrectlyAnswered, &createdRaw); err != nil {
		return nil, err
	}
	q.CreatedAt = mustTime(createdRaw)
	return &q, nil
}

// GetQuestion returns the question row for (videoRef, questionID), or nil.
func (s *Store) GetQuestion(ctx context.Context, videoRef, questionID int64) (*QuestionStat, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+questionColumns+
		" FROM question_stats q JOIN videos v ON v.id = q.video_ref WHERE q.video_ref = ? AND q.question_id = ?",
		videoRef, questionID)
	q, err := scanQuestion(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", questionID, err)
	}
	return q, nil
}

// UpsertQuestion writes every column of the question row.
func (s *Store) UpsertQuestion(ctx context.Context, q QuestionStat) (*QuestionStat, error) {
	id, err := s.upsertReturningID(ctx, `
		INSERT INTO question_stats (video_ref, question_id, title, type, video_time_seconds,
			average_answer_time_seconds, total_answered, total_correctly_answered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_ref, question_id) DO UPDATE SET
			title = excluded.title,
			type = excluded.type,
			video_time_seconds = excluded.video_time_seconds,
			average_answer_time_seconds = excluded.average_answer_time_seconds,
			total_answered = excluded.total_answered,
			total_correctly_answered = excluded.total_correctly_answered,
			created_at = excluded.created_at
		RETURNING id`,
		q.VideoRef, q.QuestionID, q.Title, q.Type, q.VideoTimeSeconds,
		q.AverageAnswerTimeSeconds, q.TotalAnswered, q.TotalCorrectlyAnswered, formatTime(q.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert question %d: %w", q.QuestionID, err)
	}
	q.ID = id
	return &q, nil
}

// ListQuestions returns questions ordered by total answers, highest first.
func (s *Store) ListQuestions(ctx context.Context, opts ListOptions) ([]QuestionStat, int, error) {
	from := "question_stats q JOIN videos v ON v.id = q.video_ref"
	where, args := filterClause(opts, "v.video_id", "q.question_id")
	total, err := s.count(ctx, from+where, args)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+questionColumns+" FROM "+from+where+
		" ORDER BY q.total_answered DESC, q.id"+pageClause(opts), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []QuestionStat
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

const answerColumns = "a.id, a.question_ref, q.question_id, a.label, a.answered_count, a.is_correct_answer"

func scanAnswer(scanner rowScanner) (*QuestionAnswer, error) {
	var (
		a       QuestionAnswer
		correct int
	)
	if err := scanner.Scan(&a.ID, &a.QuestionRef, &a.QuestionID, &a.Label, &a.AnsweredCount, &correct); err != nil {
		return nil, err
	}
	a.IsCorrectAnswer = correct != 0
	return &a, nil
}

// GetAnswer returns the answer row for (questionRef, label), or nil.
func (s *Store) GetAnswer(ctx context.Context, questionRef int64, label string) (*QuestionAnswer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+answerColumns+
		" FROM question_answers a JOIN question_stats q ON q.id = a.question_ref WHERE a.question_ref = ? AND a.label = ?",
		questionRef, label)
	a, err := scanAnswer(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get answer %q: %w", label, err)
	}
	return a, nil
}

// UpsertAnswer writes the answer's count and correctness flag.
func (s *Store) UpsertAnswer(ctx context.Context, a QuestionAnswer) (*QuestionAnswer, error) {
	id, err := s.upsertReturningID(ctx, `
		INSERT INTO question_answers (question_ref, label, answered_count, is_correct_answer)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(question_ref, label) DO UPDATE SET
			answered_count = excluded.answered_count,
			is_correct_answer = excluded.is_correct_answer
		RETURNING id`,
		a.QuestionRef, a.Label, a.AnsweredCount, boolToInt(a.IsCorrectAnswer),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert answer %q: %w", a.Label, err)
	}
	a.ID = id
	return &a, nil
}

// ListAnswers returns answers ordered by answered count, highest first.
// opts.QuestionID filters by upstream question id.
func (s *Store) ListAnswers(ctx context.Context, opts ListOptions) ([]QuestionAnswer, int, error) {
	from := "question_answers a JOIN question_stats q ON q.id = a.question_ref JOIN videos v ON v.id = q.video_ref"
	where, args := filterClause(opts, "v.video_id", "q.question_id")
	total, err := s.count(ctx, from+where, args)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+answerColumns+" FROM "+from+where+
		" ORDER BY a.answered_count DESC, a.id"+pageClause(opts), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []QuestionAnswer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}
