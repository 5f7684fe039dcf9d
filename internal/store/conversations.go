package store

import "context"

// NewConversation describes a conversation and its initial members.
type NewConversation struct {
	Name           *string
	IsGroup        bool
	ParticipantIDs []int64
}

// CreateConversation writes the conversation and its participants in one transaction.
// Repeated ids in ParticipantIDs yield ErrDuplicate and nothing is written.
func (s *Store) CreateConversation(ctx context.Context, input NewConversation) (Conversation, []ConversationParticipant, error) {
	var (
		conversation Conversation
		participants []ConversationParticipant
	)
	err := s.WithinTransaction(ctx, func(tx *Store) error {
		conversation = Conversation{Name: input.Name, IsGroup: input.IsGroup, CreatedAt: tx.now()}
		if err := tx.conn(ctx).Create(&conversation).Error; err != nil {
			return err
		}
		participants = make([]ConversationParticipant, 0, len(input.ParticipantIDs))
		for _, userID := range input.ParticipantIDs {
			participant, err := tx.AddParticipant(ctx, conversation.ID, userID)
			if err != nil {
				return err
			}
			participants = append(participants, participant)
		}
		return nil
	})
	if err != nil {
		return Conversation{}, nil, err
	}
	return conversation, participants, nil
}

func (s *Store) GetConversation(ctx context.Context, id int64) (Conversation, error) {
	return findByID[Conversation](ctx, s, id)
}

// AddParticipant links userID to the conversation. The pair is unique.
func (s *Store) AddParticipant(ctx context.Context, conversationID, userID int64) (ConversationParticipant, error) {
	var participant ConversationParticipant
	err := s.WithinTransaction(ctx, func(tx *Store) error {
		db := tx.conn(ctx)
		if _, err := tx.GetConversation(ctx, conversationID); err != nil {
			return err
		}
		found, err := exists[ConversationParticipant](db, "conversation_id = ? AND user_id = ?", conversationID, userID)
		if err != nil {
			return err
		}
		if found {
			return ErrDuplicate
		}
		participant = ConversationParticipant{ConversationID: conversationID, UserID: userID, CreatedAt: tx.now()}
		return db.Create(&participant).Error
	})
	if err != nil {
		return ConversationParticipant{}, err
	}
	return participant, nil
}

// ListParticipants returns the participant rows of a conversation.
func (s *Store) ListParticipants(ctx context.Context, conversationID int64) ([]ConversationParticipant, error) {
	participants := []ConversationParticipant{}
	err := s.conn(ctx).Where("conversation_id = ?", conversationID).Order("id ASC").Find(&participants).Error
	return participants, err
}

// ListParticipantIDs returns the distinct member ids of a conversation.
func (s *Store) ListParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	ids := []int64{}
	err := s.conn(ctx).Model(&ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListConversationsByUser returns the conversations userID belongs to, newest first.
func (s *Store) ListConversationsByUser(ctx context.Context, userID int64) ([]Conversation, error) {
	conversations := []Conversation{}
	members := s.conn(ctx).Model(&ConversationParticipant{}).Select("conversation_id").Where("user_id = ?", userID)
	err := s.conn(ctx).Where("id IN (?)", members).Order("created_at DESC").Order("id DESC").Find(&conversations).Error
	return conversations, err
}

// CreateMessage appends a message to an existing conversation.
func (s *Store) CreateMessage(ctx context.Context, conversationID, senderID int64, content string) (Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return Message{}, err
	}
	message := Message{ConversationID: conversationID, SenderID: senderID, Content: content, CreatedAt: s.now()}
	if err := s.conn(ctx).Create(&message).Error; err != nil {
		return Message{}, err
	}
	return message, nil
}

// ListMessages returns the messages of a conversation, oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	messages := []Message{}
	err := s.conn(ctx).Where("conversation_id = ?", conversationID).Order("created_at ASC").Order("id ASC").Find(&messages).Error
	return messages, err
}
