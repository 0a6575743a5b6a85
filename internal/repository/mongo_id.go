package repository

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// documentID は_idを文字列として扱う。
// このサービスが作成したドキュメントはUUID文字列、以前のバージョンが作成した
// ドキュメントはObjectIdを持つため、ObjectIdは16進文字列として読み込む。
type documentID string

// UnmarshalBSONValue はbson.ValueUnmarshalerを実装する。
func (id *documentID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if s, ok := raw.StringValueOK(); ok {
		*id = documentID(s)
		return nil
	}
	if oid, ok := raw.ObjectIDOK(); ok {
		*id = documentID(oid.Hex())
		return nil
	}
	return fmt.Errorf("unsupported _id type %s", t)
}

// idFilter は_idの検索条件を返す。ObjectIdとして解釈できるIDは
// ObjectIdと文字列の両方に一致させる。
func idFilter(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$in": bson.A{oid, id}}
	}
	return id
}

// passwordFromRaw はpasswordフィールドを取り出す。
// 以前のバージョンはbcryptハッシュをバイナリで保存している。
// null・未設定の場合はnilを返す。
func passwordFromRaw(v bson.RawValue) *string {
	switch v.Type {
	case bson.TypeString:
		s := v.StringValue()
		return &s
	case bson.TypeBinary:
		_, data := v.Binary()
		s := string(data)
		return &s
	default:
		return nil
	}
}
