package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/db"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/joho/godotenv"
)

func main() {
	recreate := flag.Bool("recreate", false, "delete existing DynamoDB tables first")
	flag.Parse()

	// Load .env from the repository root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("Warning: No .env file found in ../../, checking current dir")
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: No .env file found")
		}
	}
	ctx := context.Background()

	if url := os.Getenv("DATABASE_URL"); url != "" {
		setupPostgres(ctx, url)
		return
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}
	svc := dynamodb.NewFromConfig(cfg)

	for _, input := range []*dynamodb.CreateTableInput{playersTable(), scoresTable(), teamsTable()} {
		name := aws.ToString(input.TableName)
		if *recreate {
			deleteTableIfExists(ctx, svc, name)
		}
		createTable(ctx, svc, input)
	}
	log.Println("Database setup complete!")
}

func setupPostgres(ctx context.Context, url string) {
	store, err := db.NewPostgresStore(ctx, url)
	if err != nil {
		log.Fatalf("unable to connect to Postgres: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("Postgres schema ready")
}

func deleteTableIfExists(ctx context.Context, svc *dynamodb.Client, tableName string) {
	log.Printf("Deleting old table %s if it exists...", tableName)
	_, err := svc.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		log.Printf("DeleteTable %s skipped (or error): %v", tableName, err)
		return
	}

	waiter := dynamodb.NewTableNotExistsWaiter(svc)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, 2*time.Minute); err != nil {
		log.Printf("Waiting for %s deletion failed: %v", tableName, err)
		return
	}
	log.Printf("Table %s deleted.", tableName)
}

func createTable(ctx context.Context, svc *dynamodb.Client, input *dynamodb.CreateTableInput) {
	name := aws.ToString(input.TableName)
	log.Printf("Creating table %s...", name)

	input.BillingMode = types.BillingModePayPerRequest
	if _, err := svc.CreateTable(ctx, input); err != nil {
		log.Printf("Could not create table %s: %v", name, err)
		return
	}
	log.Printf("Table %s created successfully", name)
}

func playersTable() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(db.TablePlayers),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PlayerID"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PlayerID"), KeyType: types.KeyTypeHash},
		},
	}
}

func scoresTable() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(db.TableScores),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PlayerID"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("Mode"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("Score"), AttributeType: types.ScalarAttributeTypeN},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PlayerID"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("Mode"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(db.IndexModeScore),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("Mode"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("Score"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{
					ProjectionType: types.ProjectionTypeAll,
				},
			},
		},
	}
}

func teamsTable() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(db.TableTeams),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("TeamKey"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("TeamKey"), KeyType: types.KeyTypeHash},
		},
	}
}
