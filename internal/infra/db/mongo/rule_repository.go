package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
)

type RuleRepository struct {
	col *mongo.Collection
}

func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{col: db.Collection(rulesCollection)}
}

func (r *RuleRepository) ByID(ctx context.Context, id domainrules.RuleID) (*domainrules.Rule, error) {
	var doc ruleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrules.ErrRuleNotFound
		}
		return nil, err
	}
	rule, err := doc.toEntity()
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) ByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]domainrules.Rule, error) {
	return r.find(ctx, bson.M{"property_id": string(propertyID)})
}

func (r *RuleRepository) List(ctx context.Context) ([]domainrules.Rule, error) {
	return r.find(ctx, bson.M{})
}

func (r *RuleRepository) find(ctx context.Context, filter bson.M) ([]domainrules.Rule, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domainrules.Rule
	for cur.Next(ctx) {
		var doc ruleDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rule, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, cur.Err()
}

func (r *RuleRepository) Save(ctx context.Context, rule *domainrules.Rule) error {
	doc := newRuleDocument(rule)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, replaceUpsert())
	return err
}

func (r *RuleRepository) Delete(ctx context.Context, id domainrules.RuleID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainrules.ErrRuleNotFound
	}
	return nil
}

var _ domainrules.Repository = (*RuleRepository)(nil)
