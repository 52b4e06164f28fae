package routegeom

import (
	"context"

	"github.com/ghostwatch/ghostwatch/pkg/database"
	"github.com/ghostwatch/ghostwatch/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoProvider reads reference paths from the route_references collection
type MongoProvider struct{}

func (p MongoProvider) Lookup(ctx context.Context, routeID string) (*model.RouteReference, error) {
	routeReferencesCollection := database.GetCollection("route_references")

	var routeReference *model.RouteReference
	err := routeReferencesCollection.FindOne(ctx, bson.M{"primaryidentifier": routeID}).Decode(&routeReference)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return routeReference, nil
}
