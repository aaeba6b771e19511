package db

import (
	"fmt"
	"strconv"

	"github.com/strumline/strumline/constants"
	"github.com/strumline/strumline/model"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// BatchGetItem caps out at a handful of keys; callers page above this.
const maxBatchKeys = 10

// GetSongMetadatas looks up metadata for the named songs. Songs without
// a metadata row are simply absent from the result.
func GetSongMetadatas(ids []string) (map[string]model.SongMetadata, error) {
	res := make(map[string]model.SongMetadata)
	if len(ids) == 0 {
		return res, nil
	}
	if len(ids) > maxBatchKeys {
		return nil, fmt.Errorf("at most %v song ids per lookup, got %v", maxBatchKeys, len(ids))
	}

	var keys []map[string]*dynamodb.AttributeValue
	for _, id := range ids {
		keys = append(keys, map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(id)},
		})
	}

	endpoint := constants.GetMetadataEndpoint()
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: &endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create DynamoDB session: %w", err)
	}

	table := constants.GetMetadataTable()
	client := dynamodb.New(sess)
	input := &dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{
			table: {Keys: keys},
		},
	}
	dbres, err := client.BatchGetItem(input)
	if err != nil {
		return nil, fmt.Errorf("error from DynamoDB: %w", err)
	}

	for _, v := range dbres.Responses[table] {
		var s model.SongMetadata
		if v["Year"] != nil && v["Year"].N != nil {
			year, _ := strconv.ParseUint(*v["Year"].N, 10, 32)
			s.Year = uint(year)
		}
		if v["Artist"] != nil && v["Artist"].S != nil {
			s.Artist = *v["Artist"].S
		}
		if v["Release"] != nil && v["Release"].S != nil {
			s.Release = *v["Release"].S
		}
		if v["Title"] != nil && v["Title"].S != nil {
			s.Title = *v["Title"].S
		}
		res[*v["PK"].S] = s
	}

	return res, nil
}
