package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const (
	TablePlayers = "BurgerPlayers"
	TableScores  = "BurgerScores"
	TableTeams   = "BurgerTeams"

	// IndexModeScore ranks a mode's scores: hash Mode, range Score.
	IndexModeScore = "ModeScoreIndex"
)

// DynamoStore is the default ScoreStore.
type DynamoStore struct {
	svc *dynamodb.Client
}

// NewDynamoStore loads the default AWS config for region and logs which
// identity it is operating as.
func NewDynamoStore(ctx context.Context, region string) (*DynamoStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	svc := dynamodb.NewFromConfig(cfg)
	log.Println("DynamoDB Session Initialized")

	// DIAGNOSTIC INFO
	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		log.Printf("DIAGNOSTIC ERROR: Could not get AWS identity: %v", err)
	} else {
		log.Printf("DIAGNOSTIC: Operating as Account: %s, ARN: %s", aws.ToString(identity.Account), aws.ToString(identity.Arn))
	}
	log.Printf("DIAGNOSTIC: Region: %s", cfg.Region)

	return &DynamoStore{svc: svc}, nil
}

// --- Player Operations ---

// SavePlayer creates the player, or refreshes the profile fields of an
// existing one without touching CreatedAt.
func (s *DynamoStore) SavePlayer(ctx context.Context, p Player) error {
	existing, err := s.GetPlayer(ctx, p.PlayerID)
	if err == nil && existing != nil {
		_, err = s.svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(TablePlayers),
			Key: map[string]types.AttributeValue{
				"PlayerID": &types.AttributeValueMemberS{Value: p.PlayerID},
			},
			UpdateExpression: aws.String("set Nickname = :n, Picture = :p"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":n": &types.AttributeValueMemberS{Value: p.Nickname},
				":p": &types.AttributeValueMemberS{Value: p.Picture},
			},
		})
		if err != nil {
			log.Printf("[DB] Error updating player profile: %v", err)
		}
		return err
	}

	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	av, err := attributevalue.MarshalMap(p)
	if err != nil {
		return err
	}
	_, err = s.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(TablePlayers),
		Item:      av,
	})
	if err == nil {
		log.Printf("[DB] Created new player: %s (%s)", p.Nickname, p.PlayerID)
	} else {
		log.Printf("[DB] Error creating player: %v", err)
	}
	return err
}

func (s *DynamoStore) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	out, err := s.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TablePlayers),
		Key: map[string]types.AttributeValue{
			"PlayerID": &types.AttributeValueMemberS{Value: playerID},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var p Player
	err = attributevalue.UnmarshalMap(out.Item, &p)
	return &p, err
}

// --- Score Operations ---

// UpsertBestScore writes e only if no score is stored or the stored one is
// lower. A failed condition means the old best stands and is not an error.
func (s *DynamoStore) UpsertBestScore(ctx context.Context, e ScoreEntry) error {
	_, err := s.svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(TableScores),
		Key: map[string]types.AttributeValue{
			"PlayerID": &types.AttributeValueMemberS{Value: e.PlayerID},
			"Mode":     &types.AttributeValueMemberS{Value: e.Mode},
		},
		UpdateExpression:    aws.String("set Score = :s, MaxCombo = :c, Nickname = :n, UpdatedAt = :u"),
		ConditionExpression: aws.String("attribute_not_exists(Score) OR Score < :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberN{Value: strconv.Itoa(e.Score)},
			":c": &types.AttributeValueMemberN{Value: strconv.Itoa(e.MaxCombo)},
			":n": &types.AttributeValueMemberS{Value: e.Nickname},
			":u": &types.AttributeValueMemberN{Value: strconv.FormatInt(e.UpdatedAt, 10)},
		},
	})
	if notImproved(err) {
		return nil
	}
	if err != nil {
		log.Printf("[DB] Error saving score for %s: %v", e.PlayerID, err)
	}
	return err
}

func (s *DynamoStore) GetBestScore(ctx context.Context, playerID, mode string) (*ScoreEntry, error) {
	out, err := s.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableScores),
		Key: map[string]types.AttributeValue{
			"PlayerID": &types.AttributeValueMemberS{Value: playerID},
			"Mode":     &types.AttributeValueMemberS{Value: mode},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var e ScoreEntry
	err = attributevalue.UnmarshalMap(out.Item, &e)
	return &e, err
}

// GetLeaderboard pages through the mode index in descending score order
// until rank `to` is covered.
func (s *DynamoStore) GetLeaderboard(ctx context.Context, mode string, from, to int) ([]ScoreEntry, error) {
	if to < from {
		return []ScoreEntry{}, nil
	}
	pages := dynamodb.NewQueryPaginator(s.svc, &dynamodb.QueryInput{
		TableName:              aws.String(TableScores),
		IndexName:              aws.String(IndexModeScore),
		KeyConditionExpression: aws.String("#M = :m"),
		ExpressionAttributeNames: map[string]string{
			"#M": "Mode", // Mode is reserved
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":m": &types.AttributeValueMemberS{Value: mode},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(to + 1)),
	})

	var entries []ScoreEntry
	for pages.HasMorePages() && len(entries) <= to {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []ScoreEntry
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		entries = append(entries, batch...)
	}
	return rankWindow(entries, from, to), nil
}

// --- Team Operations ---

func (s *DynamoStore) UpsertTeamScore(ctx context.Context, a, b string, score, maxCombo int) error {
	first, second := teamPair(a, b)
	_, err := s.svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(TableTeams),
		Key: map[string]types.AttributeValue{
			"TeamKey": &types.AttributeValueMemberS{Value: TeamKey(a, b)},
		},
		UpdateExpression:    aws.String("set PlayerA = :a, PlayerB = :b, Score = :s, MaxCombo = :c, UpdatedAt = :u"),
		ConditionExpression: aws.String("attribute_not_exists(Score) OR Score < :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: first},
			":b": &types.AttributeValueMemberS{Value: second},
			":s": &types.AttributeValueMemberN{Value: strconv.Itoa(score)},
			":c": &types.AttributeValueMemberN{Value: strconv.Itoa(maxCombo)},
			":u": &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
		},
	})
	if notImproved(err) {
		return nil
	}
	return err
}

// GetTeamLeaderboard scans and sorts. Fine for the number of pairs a
// casual game produces.
func (s *DynamoStore) GetTeamLeaderboard(ctx context.Context, from, to int) ([]TeamScore, error) {
	pages := dynamodb.NewScanPaginator(s.svc, &dynamodb.ScanInput{
		TableName: aws.String(TableTeams),
	})

	var teams []TeamScore
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []TeamScore
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		teams = append(teams, batch...)
	}

	sort.Slice(teams, func(i, j int) bool {
		return teams[i].Score > teams[j].Score
	})
	return rankWindow(teams, from, to), nil
}

func (s *DynamoStore) Close() {}

func notImproved(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func rankWindow[T any](rows []T, from, to int) []T {
	if from < 0 {
		from = 0
	}
	if to >= len(rows) {
		to = len(rows) - 1
	}
	if from > to {
		return []T{}
	}
	return rows[from : to+1]
}
