package boardRepo

import (
	"context"

	"taskdeck/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BoardRepository exposes the single board read the complete hook needs:
// resolving the terminal ("Done") column a completed task moves into. Board
// CRUD itself is owned elsewhere.
type BoardRepository interface {
	GetTerminalColumnID(ctx context.Context, boardID string) (string, error)
}

type boardColumn struct {
	ID       string `bson:"id"`
	Title    string `bson:"title"`
	Terminal bool   `bson:"terminal"`
}

type boardDoc struct {
	ID      string        `bson:"id"`
	Columns []boardColumn `bson:"columns"`
}

type mongoBoardRepo struct {
	coll *mongo.Collection
}

// NewMongoBoardRepo returns a BoardRepository backed by MongoDB.
func NewMongoBoardRepo() BoardRepository {
	db := database.MongoClient.Database(database.Name)
	return &mongoBoardRepo{coll: db.Collection("boards")}
}

// GetTerminalColumnID returns the column flagged terminal, falling back to
// the last column when no flag is set.
func (r *mongoBoardRepo) GetTerminalColumnID(ctx context.Context, boardID string) (string, error) {
	var board boardDoc
	if err := r.coll.FindOne(ctx, bson.M{"id": boardID}).Decode(&board); err != nil {
		return "", err
	}
	for _, col := range board.Columns {
		if col.Terminal {
			return col.ID, nil
		}
	}
	if n := len(board.Columns); n > 0 {
		return board.Columns[n-1].ID, nil
	}
	return "", mongo.ErrNoDocuments
}
