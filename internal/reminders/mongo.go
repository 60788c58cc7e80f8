package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nikmy/remindbot/pkg/errors"
	"github.com/nikmy/remindbot/pkg/logger"
)

type MongoConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`

	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`

	Auth struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"auth"`
}

var fireTimeIndex = mongo.IndexModel{
	Keys:    bson.D{{Key: "next_fire_at", Value: 1}},
	Options: options.Index().SetName("next_fire_time"),
}

func newMongo(ctx context.Context, cfg MongoConfig, log logger.Logger) (*mongoRepo, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetTimeout(cfg.Timeout)

	if cfg.Auth.Username != "" {
		opts = opts.SetAuth(options.Credential{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.WrapFail(err, "connect to mongo db")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	_, err = coll.Indexes().CreateOne(ctx, fireTimeIndex)
	if err != nil {
		return nil, errors.WrapFail(err, "create fire time index")
	}

	return &mongoRepo{
		coll: coll,
		log:  log.With("mongo_reminders"),
	}, nil
}

type mongoRepo struct {
	coll *mongo.Collection
	log  logger.Logger
}

func (m *mongoRepo) Create(ctx context.Context, r Reminder) (string, error) {
	r.ID = uuid.NewString()
	r.NextFireAt = r.NextFireAt.UTC().Truncate(time.Minute)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := m.coll.InsertOne(ctx, r)
	if err != nil {
		return "", errors.WrapFail(err, "insert reminder")
	}

	return r.ID, nil
}

func (m *mongoRepo) FindDue(ctx context.Context, at time.Time) ([]Reminder, error) {
	filter := bson.D{{Key: "next_fire_at", Value: at.UTC().Truncate(time.Minute)}}

	due, err := m.selectMany(ctx, filter)
	return due, errors.WrapFail(err, "select due reminders")
}

func (m *mongoRepo) Update(ctx context.Context, owner, id string, nextFireAt time.Time) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "next_fire_at", Value: nextFireAt.UTC().Truncate(time.Minute)},
	}}}

	result, err := m.coll.UpdateOne(ctx, m.keyFilter(owner, id), update)
	if err != nil {
		return errors.WrapFail(err, "update reminder fire time")
	}

	if result.MatchedCount == 0 {
		return errors.Errorf("no reminder %s/%s", owner, id)
	}

	return nil
}

func (m *mongoRepo) Delete(ctx context.Context, owner, id string) (bool, error) {
	result, err := m.coll.DeleteOne(ctx, m.keyFilter(owner, id))
	if err != nil {
		return false, errors.WrapFail(err, "delete reminder")
	}

	return result.DeletedCount == 1, nil
}

func (m *mongoRepo) ListByOwner(ctx context.Context, owner string) ([]Reminder, error) {
	owned, err := m.selectMany(ctx, bson.D{{Key: "owner_id", Value: owner}})
	return owned, errors.WrapFail(err, "select reminders by owner")
}

func (m *mongoRepo) Close(ctx context.Context) error {
	err := m.coll.Database().Client().Disconnect(ctx)
	return errors.WrapFail(err, "close mongo db connection")
}

func (m *mongoRepo) selectMany(ctx context.Context, filter bson.D) ([]Reminder, error) {
	cur, err := m.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.WrapFail(err, "find reminders")
	}

	defer func() {
		if err := cur.Close(ctx); err != nil {
			m.log.Warn(errors.WrapFail(err, "close cursor"))
		}
	}()

	var (
		selected []Reminder
		errs     []error
	)

	for cur.Next(ctx) {
		var r Reminder

		if err := cur.Decode(&r); err != nil {
			errs = append(errs, err)
			continue
		}

		selected = append(selected, r)
	}

	if cur.Err() != nil {
		return nil, errors.WrapFail(cur.Err(), "iterate reminders")
	}

	if len(errs) != 0 {
		m.log.Error(errors.WrapFail(errors.Collapse(errs), "decode some reminders"))
	}

	return selected, nil
}

func (m *mongoRepo) keyFilter(owner, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "owner_id", Value: owner}}
}
